package application_test

import (
	"context"
	"sort"
	"sync"

	"github.com/ericfisherdev/proxmoxvm/internal/domain/model"
	"github.com/ericfisherdev/proxmoxvm/internal/domain/port/driven"
)

// --- Mock implementations ---

type createCall struct {
	Kind model.GuestKind
	Node string
	VMID int
	Spec model.GuestSpec
}

type mockHypervisor struct {
	loginErr   error
	nextID     int
	createErr  error
	startErr   error
	stopErr    error
	restartErr error
	deleteErr  error
	status     *model.GuestStatus
	statusErr  error
	consoleErr error

	calls   []string
	creates []createCall
	guests  []model.Guest
}

func (m *mockHypervisor) Login(_ context.Context) error {
	m.calls = append(m.calls, "Login")
	return m.loginErr
}

func (m *mockHypervisor) NextID(_ context.Context) int {
	m.calls = append(m.calls, "NextID")
	if m.nextID == 0 {
		return driven.FallbackVMID
	}
	return m.nextID
}

func (m *mockHypervisor) CreateContainer(_ context.Context, node string, vmid int, spec model.GuestSpec) (string, error) {
	m.calls = append(m.calls, "CreateContainer")
	m.creates = append(m.creates, createCall{Kind: model.GuestKindContainer, Node: node, VMID: vmid, Spec: spec})
	return "UPID:create", m.createErr
}

func (m *mockHypervisor) CreateVM(_ context.Context, node string, vmid int, spec model.GuestSpec) (string, error) {
	m.calls = append(m.calls, "CreateVM")
	m.creates = append(m.creates, createCall{Kind: model.GuestKindVM, Node: node, VMID: vmid, Spec: spec})
	return "UPID:create", m.createErr
}

func (m *mockHypervisor) Start(_ context.Context, guest model.Guest) (string, error) {
	m.record("Start", guest)
	return "UPID:start", m.startErr
}

func (m *mockHypervisor) Stop(_ context.Context, guest model.Guest) (string, error) {
	m.record("Stop", guest)
	return "UPID:stop", m.stopErr
}

func (m *mockHypervisor) Restart(_ context.Context, guest model.Guest) (string, error) {
	m.record("Restart", guest)
	return "UPID:reboot", m.restartErr
}

func (m *mockHypervisor) Delete(_ context.Context, guest model.Guest) (string, error) {
	m.record("Delete", guest)
	return "UPID:delete", m.deleteErr
}

func (m *mockHypervisor) Status(_ context.Context, guest model.Guest) (*model.GuestStatus, error) {
	m.record("Status", guest)
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	if m.status == nil {
		return &model.GuestStatus{Status: "running"}, nil
	}
	return m.status, nil
}

func (m *mockHypervisor) ConsoleTicket(_ context.Context, guest model.Guest) (*model.ConsoleTicket, error) {
	m.record("ConsoleTicket", guest)
	if m.consoleErr != nil {
		return nil, m.consoleErr
	}
	return &model.ConsoleTicket{Ticket: "PVEVNC:abc", Port: "5900"}, nil
}

func (m *mockHypervisor) record(call string, guest model.Guest) {
	m.calls = append(m.calls, call)
	m.guests = append(m.guests, guest)
}

// mockFactory hands out one shared mockHypervisor and records the servers asked for.
type mockFactory struct {
	hv      *mockHypervisor
	servers []model.Server
}

func (f *mockFactory) New(server model.Server) driven.Hypervisor {
	f.servers = append(f.servers, server)
	return f.hv
}

type mockBindingStore struct {
	mu          sync.Mutex
	bindings    map[int64]model.VMBinding
	sealErr     error
	createErr   error
	getErr      error
	passwordErr error
	deleteErr   error
	panicOn     string
	deletes     []int64
}

func newMockBindingStore(seed ...model.VMBinding) *mockBindingStore {
	m := &mockBindingStore{bindings: make(map[int64]model.VMBinding)}
	for _, b := range seed {
		m.bindings[b.ServiceID] = b
	}
	return m
}

func (m *mockBindingStore) CredentialsReady() error {
	return m.sealErr
}

func (m *mockBindingStore) Create(_ context.Context, binding model.VMBinding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.bindings[binding.ServiceID]; ok {
		return driven.ErrBindingExists
	}
	m.bindings[binding.ServiceID] = binding
	return nil
}

func (m *mockBindingStore) GetByServiceID(_ context.Context, serviceID int64) (*model.VMBinding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicOn == "GetByServiceID" {
		panic("store exploded")
	}
	if m.getErr != nil {
		return nil, m.getErr
	}
	b, ok := m.bindings[serviceID]
	if !ok {
		return nil, nil
	}
	b.Password = ""
	return &b, nil
}

func (m *mockBindingStore) GetPassword(_ context.Context, serviceID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.passwordErr != nil {
		return "", m.passwordErr
	}
	b, ok := m.bindings[serviceID]
	if !ok {
		return "", driven.ErrBindingNotFound
	}
	return b.Password, nil
}

func (m *mockBindingStore) DeleteByServiceID(_ context.Context, serviceID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, serviceID)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.bindings[serviceID]; !ok {
		return driven.ErrBindingNotFound
	}
	delete(m.bindings, serviceID)
	return nil
}

func (m *mockBindingStore) ListAll(_ context.Context) ([]model.VMBinding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.VMBinding, 0, len(m.bindings))
	for _, b := range m.bindings {
		b.Password = ""
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServiceID < out[j].ServiceID })
	return out, nil
}

func (m *mockBindingStore) get(serviceID int64) (model.VMBinding, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bindings[serviceID]
	return b, ok
}

type mockServiceStore struct {
	usernames map[int64]string
	err       error
}

func (m *mockServiceStore) SetUsername(_ context.Context, serviceID int64, username string) error {
	if m.err != nil {
		return m.err
	}
	if m.usernames == nil {
		m.usernames = make(map[int64]string)
	}
	m.usernames[serviceID] = username
	return nil
}
