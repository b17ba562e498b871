package terminal

import (
	"bytes"
	"regexp"
	"strings"
)

// Class 输出匹配分类
type Class string

const (
	ClassPrompt        Class = "prompt"         // 设备空闲，可接收下一条命令
	ClassSyntaxError   Class = "syntax_error"   // 命令被拒绝
	ClassPrivilegeLost Class = "privilege_lost" // 掉出特权上下文，回到密码提示
)

// Rule 一条匹配规则
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Class   Class
}

// Match reports whether the rule matches buf.
func (r Rule) Match(buf []byte) bool {
	return r.Pattern.Match(buf)
}

var (
	promptPattern        = regexp.MustCompile(`(^|\r\n)+> $`)
	syntaxErrorPattern   = regexp.MustCompile(`(^|\r\n)Syntax error:\s[\S ]+(\r\n|$)`)
	privilegeLostPattern = regexp.MustCompile(`(^|\r\n)Password:\s`)
)

// StdoutRules returns the idle prompt rules in priority order.
func StdoutRules() []Rule {
	return []Rule{
		{Name: "clish_prompt", Pattern: promptPattern, Class: ClassPrompt},
	}
}

// StderrRules returns the error rules in priority order. First match wins.
func StderrRules() []Rule {
	return []Rule{
		{Name: "syntax_error", Pattern: syntaxErrorPattern, Class: ClassSyntaxError},
		// 特权丢失后设备要求重新认证
		{Name: "password_prompt", Pattern: privilegeLostPattern, Class: ClassPrivilegeLost},
	}
}

// PromptPattern is the idle prompt expression, for transports that take a single pattern.
func PromptPattern() *regexp.Regexp {
	return promptPattern
}

// PrivilegeLostPattern matches the re-authentication prompt.
func PrivilegeLostPattern() *regexp.Regexp {
	return privilegeLostPattern
}

// MatchPrompt reports whether buf ends at an idle prompt.
func MatchPrompt(buf []byte) (Rule, bool) {
	for _, r := range StdoutRules() {
		if r.Match(buf) {
			return r, true
		}
	}
	return Rule{}, false
}

// MatchError returns the first stderr rule matching buf.
func MatchError(buf []byte) (Rule, bool) {
	for _, r := range StderrRules() {
		if r.Match(buf) {
			return r, true
		}
	}
	return Rule{}, false
}

// Verdict 对缓冲输出的判定结果
type Verdict struct {
	Complete bool  // 读取可以结束
	Failure  *Rule // 非空表示输出是错误
}

// Inspect decides whether buffered output is finished and whether it is an error.
// A syntax error is only complete once the prompt has come back; a privilege loss
// is complete immediately because no prompt follows the password request.
func Inspect(buf []byte) Verdict {
	if rule, ok := MatchError(buf); ok {
		if rule.Class == ClassPrivilegeLost {
			return Verdict{Complete: true, Failure: &rule}
		}
		_, prompt := MatchPrompt(buf)
		return Verdict{Complete: prompt, Failure: &rule}
	}
	_, prompt := MatchPrompt(buf)
	return Verdict{Complete: prompt}
}

// SearchDepth 判断输出是否结束时只看末尾这么多字节
const SearchDepth = 1000

// Tail returns the last SearchDepth bytes of buf with escape sequences removed.
func Tail(buf []byte) []byte {
	if len(buf) > SearchDepth {
		buf = buf[len(buf)-SearchDepth:]
	}
	return StripANSI(buf)
}

// Settled reports whether tail ends a read: the idle prompt is back or the
// device asks for a password. Use Inspect on the whole output to classify it.
func Settled(tail []byte) bool {
	return promptPattern.Match(tail) || privilegeLostPattern.Match(tail)
}

// IsPrivilegedPrompt reports whether prompt is the FTD CLISH prompt.
func IsPrivilegedPrompt(prompt string) bool {
	return strings.HasSuffix(strings.TrimSpace(prompt), ">")
}

var ansiPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\x1b\[\?1h\x1b=`),
	regexp.MustCompile(`\x08.`),
	regexp.MustCompile(`\x1b\[m`),
	regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`),
	regexp.MustCompile(`\x1b[=>]`),
}

// StripANSI removes terminal escape sequences and backspace pairs.
func StripANSI(buf []byte) []byte {
	for _, re := range ansiPatterns {
		buf = re.ReplaceAll(buf, nil)
	}
	return buf
}

// Sanitize drops the command echo and prompt lines from a raw response.
func Sanitize(resp []byte, command string) string {
	resp = StripANSI(resp)
	command = strings.TrimSpace(command)

	var cleaned []string
	for _, line := range strings.Split(string(bytes.ReplaceAll(resp, []byte("\r\n"), []byte("\n"))), "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == ">" {
			continue
		}
		if command != "" && strings.TrimSpace(strings.TrimPrefix(trimmed, ">")) == command {
			continue
		}
		cleaned = append(cleaned, line)
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}
