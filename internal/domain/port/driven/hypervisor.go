package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/proxmoxvm/internal/domain/model"
)

// Sentinel errors returned by Hypervisor implementations. Adapters wrap them
// with operation context, so match with errors.Is.
var (
	// ErrNotAuthenticated indicates an authenticated call was attempted before Login succeeded.
	ErrNotAuthenticated = errors.New("hypervisor session not authenticated")

	// ErrAuthenticationFailed indicates the login exchange did not yield a session ticket.
	ErrAuthenticationFailed = errors.New("hypervisor authentication failed")

	// ErrTransport indicates the request never produced an HTTP response.
	ErrTransport = errors.New("hypervisor unreachable")

	// ErrRejected indicates the hypervisor answered with a non-2xx status.
	ErrRejected = errors.New("hypervisor rejected request")

	// ErrDecode indicates the response body was not the expected JSON envelope.
	ErrDecode = errors.New("hypervisor response malformed")
)

// FallbackVMID is returned by NextID when the cluster cannot be asked for a
// free id. It can collide with an existing guest.
const FallbackVMID = 100

// Hypervisor defines the driven port for one authenticated session against a
// Proxmox-like management endpoint. A session is single-use: callers create
// one per invocation and call Login before anything else.
type Hypervisor interface {
	Login(ctx context.Context) error

	// NextID returns a free resource id, or FallbackVMID if the lookup fails.
	NextID(ctx context.Context) int

	// CreateContainer and CreateVM return the task UPID of the create job.
	CreateContainer(ctx context.Context, node string, vmid int, spec model.GuestSpec) (string, error)
	CreateVM(ctx context.Context, node string, vmid int, spec model.GuestSpec) (string, error)

	Start(ctx context.Context, guest model.Guest) (string, error)
	Stop(ctx context.Context, guest model.Guest) (string, error)
	Restart(ctx context.Context, guest model.Guest) (string, error)
	Delete(ctx context.Context, guest model.Guest) (string, error)

	Status(ctx context.Context, guest model.Guest) (*model.GuestStatus, error)
	ConsoleTicket(ctx context.Context, guest model.Guest) (*model.ConsoleTicket, error)
}

// HypervisorFactory builds a fresh, unauthenticated session for a server.
type HypervisorFactory func(server model.Server) Hypervisor
