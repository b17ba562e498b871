package cliconf

import (
	"context"

	"github.com/charlesren/ftd_cliconf/connection"
	"github.com/stretchr/testify/mock"
)

// MockConnection 模拟会话
type MockConnection struct {
	mock.Mock
}

func (m *MockConnection) SendCommand(ctx context.Context, cmd connection.Command) (string, error) {
	args := m.Called(ctx, cmd)
	return args.String(0), args.Error(1)
}

func (m *MockConnection) GetPrompt(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func newPrivilegedMock() *MockConnection {
	m := &MockConnection{}
	m.On("GetPrompt", mock.Anything).Return("> ", nil)
	return m
}

// inputIs 按命令文本匹配
func inputIs(input string) interface{} {
	return mock.MatchedBy(func(cmd connection.Command) bool { return cmd.Input == input })
}
