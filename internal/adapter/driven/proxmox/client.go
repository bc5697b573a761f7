// Package proxmox implements the Hypervisor port against the Proxmox VE REST API.
package proxmox

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ericfisherdev/proxmoxvm/internal/domain/model"
	"github.com/ericfisherdev/proxmoxvm/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Hypervisor = (*Client)(nil)

const (
	DefaultPort  = 8006
	DefaultRealm = "pam"

	authCookieName = "PVEAuthCookie"
	csrfHeaderName = "CSRFPreventionToken"
)

// Client is one session against a Proxmox VE API endpoint. It holds the
// ticket and CSRF token obtained by Login for its own lifetime only and is
// not safe for concurrent use.
type Client struct {
	http     *http.Client
	baseURL  string
	user     string
	password string
	realm    string

	ticket    string
	csrfToken string
}

// NewClient creates an unauthenticated session for server. Zero port and
// realm fall back to 8006 and "pam".
func NewClient(server model.Server) *Client {
	port := server.Port
	if port == 0 {
		port = DefaultPort
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if server.TLSSkipVerify {
		// Proxmox nodes ship with self-signed certificates.
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via PROXMOXVM_TLS_SKIP_VERIFY
	}

	baseURL := fmt.Sprintf("https://%s:%d/api2/json", server.Host, port)
	return NewClientWithHTTPClient(&http.Client{Transport: transport, Timeout: server.Timeout}, baseURL, server)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// Tests use it to point the session at an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string, server model.Server) *Client {
	realm := server.Realm
	if realm == "" {
		realm = DefaultRealm
	}

	return &Client{
		http:     httpClient,
		baseURL:  strings.TrimRight(baseURL, "/"),
		user:     server.User,
		password: server.Password,
		realm:    realm,
	}
}

// NewFactory returns a driven.HypervisorFactory producing real sessions.
func NewFactory() driven.HypervisorFactory {
	return func(server model.Server) driven.Hypervisor {
		return NewClient(server)
	}
}

// Login exchanges the credentials for a session ticket and CSRF token.
func (c *Client) Login(ctx context.Context) error {
	form := url.Values{
		"username": {c.user + "@" + c.realm},
		"password": {c.password},
	}

	data, err := c.do(ctx, http.MethodPost, "/access/ticket", form, false)
	if err != nil {
		return fmt.Errorf("%w: %w", driven.ErrAuthenticationFailed, err)
	}

	var session struct {
		Ticket              string `json:"ticket"`
		CSRFPreventionToken string `json:"CSRFPreventionToken"`
	}
	if err := json.Unmarshal(data, &session); err != nil || session.Ticket == "" {
		return fmt.Errorf("%w: no ticket in response", driven.ErrAuthenticationFailed)
	}

	c.ticket = session.Ticket
	c.csrfToken = session.CSRFPreventionToken
	slog.Debug("proxmox session established", "base_url", c.baseURL, "user", c.user, "realm", c.realm)
	return nil
}

// NextID asks the cluster for a free resource id. Any failure yields
// driven.FallbackVMID.
func (c *Client) NextID(ctx context.Context) int {
	data, err := c.do(ctx, http.MethodGet, "/cluster/nextid", nil, true)
	if err != nil {
		slog.Warn("next vmid lookup failed, using fallback", "fallback", driven.FallbackVMID, "error", err)
		return driven.FallbackVMID
	}

	id, err := parseVMID(data)
	if err != nil {
		slog.Warn("next vmid unparseable, using fallback", "fallback", driven.FallbackVMID, "error", err)
		return driven.FallbackVMID
	}
	return id
}

// CreateContainer provisions an LXC container and starts it on creation.
func (c *Client) CreateContainer(ctx context.Context, node string, vmid int, spec model.GuestSpec) (string, error) {
	swap := spec.Swap
	if swap == 0 {
		swap = 512
	}

	form := url.Values{
		"vmid":       {strconv.Itoa(vmid)},
		"hostname":   {spec.Hostname},
		"ostemplate": {spec.OSTemplate},
		"cores":      {strconv.Itoa(spec.Cores)},
		"memory":     {strconv.Itoa(spec.Memory)},
		"swap":       {strconv.Itoa(swap)},
		"rootfs":     {fmt.Sprintf("%s:%d", storageOf(spec), spec.Disk)},
		"net0":       {ContainerNetwork(spec)},
		"password":   {spec.Password},
		"start":      {"1"},
	}

	return c.task(ctx, http.MethodPost, fmt.Sprintf("/nodes/%s/lxc", url.PathEscape(node)), form)
}

// CreateVM provisions a QEMU virtual machine. Addressing is passed to
// cloud-init through ipconfig0.
func (c *Client) CreateVM(ctx context.Context, node string, vmid int, spec model.GuestSpec) (string, error) {
	form := url.Values{
		"vmid":      {strconv.Itoa(vmid)},
		"name":      {spec.Hostname},
		"cores":     {strconv.Itoa(spec.Cores)},
		"memory":    {strconv.Itoa(spec.Memory)},
		"scsihw":    {"virtio-scsi-pci"},
		"scsi0":     {fmt.Sprintf("%s:%d,cache=writeback", storageOf(spec), spec.Disk)},
		"net0":      {"virtio,bridge=" + bridgeOf(spec)},
		"ipconfig0": {VMIPConfig(spec)},
		"ostype":    {"l26"},
	}
	if spec.Password != "" {
		form.Set("cipassword", spec.Password)
	}

	return c.task(ctx, http.MethodPost, fmt.Sprintf("/nodes/%s/qemu", url.PathEscape(node)), form)
}

// Start boots the guest.
func (c *Client) Start(ctx context.Context, guest model.Guest) (string, error) {
	return c.task(ctx, http.MethodPost, guestPath(guest, "/status/start"), nil)
}

// Stop powers the guest off immediately.
func (c *Client) Stop(ctx context.Context, guest model.Guest) (string, error) {
	return c.task(ctx, http.MethodPost, guestPath(guest, "/status/stop"), nil)
}

// Restart reboots the guest.
func (c *Client) Restart(ctx context.Context, guest model.Guest) (string, error) {
	return c.task(ctx, http.MethodPost, guestPath(guest, "/status/reboot"), nil)
}

// Delete destroys the guest.
func (c *Client) Delete(ctx context.Context, guest model.Guest) (string, error) {
	return c.task(ctx, http.MethodDelete, guestPath(guest, ""), nil)
}

// Status reads the guest's current runtime state.
func (c *Client) Status(ctx context.Context, guest model.Guest) (*model.GuestStatus, error) {
	data, err := c.do(ctx, http.MethodGet, guestPath(guest, "/status/current"), nil, true)
	if err != nil {
		return nil, fmt.Errorf("status of %s/%d: %w", guest.Node, guest.VMID, err)
	}

	var st struct {
		Status string  `json:"status"`
		Name   string  `json:"name"`
		Uptime int64   `json:"uptime"`
		CPU    float64 `json:"cpu"`
		Mem    int64   `json:"mem"`
		MaxMem int64   `json:"maxmem"`
	}
	if err := decodeData(data, &st); err != nil {
		return nil, fmt.Errorf("status of %s/%d: %w", guest.Node, guest.VMID, err)
	}

	return &model.GuestStatus{
		Status: st.Status,
		Name:   st.Name,
		Uptime: st.Uptime,
		CPU:    st.CPU,
		Mem:    st.Mem,
		MaxMem: st.MaxMem,
	}, nil
}

// ConsoleTicket requests a websocket VNC proxy ticket for the guest.
func (c *Client) ConsoleTicket(ctx context.Context, guest model.Guest) (*model.ConsoleTicket, error) {
	form := url.Values{"websocket": {"1"}}

	data, err := c.do(ctx, http.MethodPost, guestPath(guest, "/vncproxy"), form, true)
	if err != nil {
		return nil, fmt.Errorf("vncproxy for %s/%d: %w", guest.Node, guest.VMID, err)
	}

	var vnc struct {
		Ticket string      `json:"ticket"`
		Port   json.Number `json:"port"`
		User   string      `json:"user"`
		UPID   string      `json:"upid"`
	}
	if err := decodeData(data, &vnc); err != nil {
		return nil, fmt.Errorf("vncproxy for %s/%d: %w", guest.Node, guest.VMID, err)
	}

	return &model.ConsoleTicket{
		Ticket: vnc.Ticket,
		Port:   vnc.Port.String(),
		User:   vnc.User,
		UPID:   vnc.UPID,
	}, nil
}

// task issues a call whose data is a task UPID string.
func (c *Client) task(ctx context.Context, method, path string, form url.Values) (string, error) {
	data, err := c.do(ctx, method, path, form, true)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", method, path, err)
	}

	// Some endpoints answer with null data; that still counts as accepted.
	if len(data) == 0 || string(data) == "null" {
		return "", nil
	}
	var upid string
	if err := json.Unmarshal(data, &upid); err != nil {
		return "", fmt.Errorf("%s %s: %w: %w", method, path, driven.ErrDecode, err)
	}
	return upid, nil
}

// do performs one request and returns the "data" member of the response envelope.
func (c *Client) do(ctx context.Context, method, path string, form url.Values, auth bool) (json.RawMessage, error) {
	if auth && c.ticket == "" {
		return nil, driven.ErrNotAuthenticated
	}

	target := c.baseURL + path
	var body io.Reader
	if len(form) > 0 {
		if method == http.MethodGet || method == http.MethodDelete {
			target += "?" + form.Encode()
		} else {
			body = strings.NewReader(form.Encode())
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	if auth {
		req.AddCookie(&http.Cookie{Name: authCookieName, Value: c.ticket})
		req.Header.Set(csrfHeaderName, c.csrfToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", driven.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", driven.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(raw))}
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", driven.ErrDecode, err)
	}

	return envelope.Data, nil
}

// decodeData unmarshals a non-null data member into v.
func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return fmt.Errorf("%w: empty data", driven.ErrDecode)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", driven.ErrDecode, err)
	}
	return nil
}

// parseVMID accepts the id as a JSON string or number.
func parseVMID(data json.RawMessage) (int, error) {
	var n json.Number
	if err := decodeData(data, &n); err != nil {
		return 0, err
	}
	id, err := strconv.Atoi(n.String())
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid vmid %q", driven.ErrDecode, n.String())
	}
	return id, nil
}

func guestPath(guest model.Guest, suffix string) string {
	return fmt.Sprintf("/nodes/%s/%s/%d%s", url.PathEscape(guest.Node), guest.Kind.APIPath(), guest.VMID, suffix)
}
