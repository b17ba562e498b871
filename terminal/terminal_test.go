package terminal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchPrompt(t *testing.T) {
	tests := []struct {
		name string
		buf  string
		want bool
	}{
		{"prompt after crlf", "show version\r\nModel : x\r\n> ", true},
		{"bare prompt", "> ", true},
		{"repeated crlf", "\r\n\r\n> ", true},
		{"hash prompt", "firepower# ", false},
		{"prompt not at end", "\r\n> more", false},
		{"missing trailing space", "\r\n>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := MatchPrompt([]byte(tt.buf))
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestMatchError_Order(t *testing.T) {
	rules := StderrRules()
	require.Len(t, rules, 2)
	assert.Equal(t, ClassSyntaxError, rules[0].Class)
	assert.Equal(t, ClassPrivilegeLost, rules[1].Class)

	// 两条规则都命中时取第一条
	rule, ok := MatchError([]byte("Syntax error: Illegal parameter\r\nPassword: "))
	require.True(t, ok)
	assert.Equal(t, ClassSyntaxError, rule.Class)

	rule, ok = MatchError([]byte("\r\nPassword: "))
	require.True(t, ok)
	assert.Equal(t, ClassPrivilegeLost, rule.Class)

	_, ok = MatchError([]byte("Model : Cisco Firepower\r\n> "))
	assert.False(t, ok)

	_, ok = MatchError([]byte("foo Syntax error: not at line start"))
	assert.False(t, ok)
}

func TestInspect(t *testing.T) {
	t.Run("plain output completes at prompt", func(t *testing.T) {
		v := Inspect([]byte("show version\r\nok\r\n> "))
		assert.True(t, v.Complete)
		assert.Nil(t, v.Failure)
	})

	t.Run("partial output is not complete", func(t *testing.T) {
		v := Inspect([]byte("show version\r\nModel"))
		assert.False(t, v.Complete)
		assert.Nil(t, v.Failure)
	})

	t.Run("syntax error waits for prompt", func(t *testing.T) {
		v := Inspect([]byte("\r\nSyntax error: Illegal parameter"))
		assert.False(t, v.Complete)
		require.NotNil(t, v.Failure)
		assert.Equal(t, ClassSyntaxError, v.Failure.Class)

		v = Inspect([]byte("\r\nSyntax error: Illegal parameter\r\n> "))
		assert.True(t, v.Complete)
		require.NotNil(t, v.Failure)
		assert.Equal(t, ClassSyntaxError, v.Failure.Class)
	})

	t.Run("password prompt is a failure not a prompt", func(t *testing.T) {
		v := Inspect([]byte("expert\r\nPassword: "))
		assert.True(t, v.Complete)
		require.NotNil(t, v.Failure)
		assert.Equal(t, ClassPrivilegeLost, v.Failure.Class)
	})
}

func TestIsPrivilegedPrompt(t *testing.T) {
	assert.True(t, IsPrivilegedPrompt("> "))
	assert.True(t, IsPrivilegedPrompt(">"))
	assert.False(t, IsPrivilegedPrompt("admin@firepower:~$ "))
	assert.False(t, IsPrivilegedPrompt("firepower#"))
}

func TestSanitize(t *testing.T) {
	raw := []byte("show version\r\n-------------------[ firepower ]--------------------\r\n" +
		"Model                     : Cisco Firepower 2100 Threat Defense (75) Version 7.0.1 (Build 5)\r\n\r\n> ")
	out := Sanitize(raw, "show version")
	assert.Equal(t, "-------------------[ firepower ]--------------------\n"+
		"Model                     : Cisco Firepower 2100 Threat Defense (75) Version 7.0.1 (Build 5)", out)

	assert.Equal(t, "line", Sanitize([]byte("> show x\r\nline\r\n> "), "show x"))
}

func TestStripANSI(t *testing.T) {
	assert.Equal(t, "abc", string(StripANSI([]byte("\x1b[?1h\x1b=a\x1b[mb\x1b[0;32mc"))))
	assert.Equal(t, "ab", string(StripANSI([]byte("a\x08 b"))))
}

func TestTailAndSettled(t *testing.T) {
	long := strings.Repeat("interface GigabitEthernet0/1\r\n", 2000)

	tail := Tail([]byte(long + "\x1b[m> "))
	assert.LessOrEqual(t, len(tail), SearchDepth)
	assert.True(t, strings.HasSuffix(string(tail), "\r\n> "))
	assert.True(t, Settled(tail))

	assert.False(t, Settled(Tail([]byte(long))))
	assert.True(t, Settled(Tail([]byte(long+"Password: "))))
	// 错误文本本身不结束读取，要等提示符
	assert.False(t, Settled(Tail([]byte("\r\nSyntax error: Illegal parameter"))))
	assert.Equal(t, "> ", string(Tail([]byte("> "))))
}
