package connection

import (
	"context"
	"errors"
)

type MockProtocolDriver struct {
	ProtocolTypeFunc  func() Protocol
	CloseFunc         func() error
	SendCommandFunc   func(ctx context.Context, cmd Command) (string, error)
	GetPromptFunc     func(ctx context.Context) (string, error)
	GetCapabilityFunc func() ProtocolCapability
}

func (m *MockProtocolDriver) ProtocolType() Protocol {
	if m.ProtocolTypeFunc != nil {
		return m.ProtocolTypeFunc()
	}
	return ""
}

func (m *MockProtocolDriver) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *MockProtocolDriver) SendCommand(ctx context.Context, cmd Command) (string, error) {
	if m.SendCommandFunc != nil {
		return m.SendCommandFunc(ctx, cmd)
	}
	return "", errors.New("mock not implemented")
}

func (m *MockProtocolDriver) GetPrompt(ctx context.Context) (string, error) {
	if m.GetPromptFunc != nil {
		return m.GetPromptFunc(ctx)
	}
	return "", errors.New("mock not implemented")
}

func (m *MockProtocolDriver) GetCapability() ProtocolCapability {
	if m.GetCapabilityFunc != nil {
		return m.GetCapabilityFunc()
	}
	return FTDCapability(ProtocolSSH)
}
