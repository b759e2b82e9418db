package voice

import (
	"context"

	"github.com/google/uuid"
)

// LocalProvider hands out call ids without contacting anyone. The client drives the
// conversation itself and streams transcript events over the session websocket.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (LocalProvider) StartCall(_ context.Context, _ CallRequest) (*Call, error) {
	return &Call{CallID: "local-" + uuid.NewString()}, nil
}

func (LocalProvider) EndCall(context.Context, string) error {
	return nil
}

func (LocalProvider) Name() string {
	return "local"
}
