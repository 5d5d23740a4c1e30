package blynk

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// commaDecimal 匹配以逗号作小数点的数字文本（如 "12,5"）
var commaDecimal = regexp.MustCompile(`^[+-]?\d+,\d+$`)

// FormatValue 将引脚参数渲染为线上文本：数字使用十进制规范形式，小数点统一为 '.'
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		if commaDecimal.MatchString(x) {
			return strings.Replace(x, ",", ".", 1)
		}
		return x
	case []byte:
		return string(x)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}

// FormatValues 批量渲染
func FormatValues(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = FormatValue(v)
	}
	return out
}

// ParseValue 解析入站参数：整数 -> int64，其他数字 -> float64，否则保留文本
func ParseValue(tok string) any {
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return n
	}
	if !looksNumeric(tok) {
		return tok
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return f
	}
	return tok
}

// looksNumeric 排除 ParseFloat 额外接受的 "NaN"、"Inf"、十六进制浮点等写法
func looksNumeric(tok string) bool {
	if tok == "" {
		return false
	}
	for i := 0; i < len(tok); i++ {
		switch c := tok[i]; {
		case c >= '0' && c <= '9', c == '.', c == '+', c == '-', c == 'e', c == 'E':
		default:
			return false
		}
	}
	return true
}

// ParseValues 批量解析
func ParseValues(tokens []string) []any {
	out := make([]any, len(tokens))
	for i, t := range tokens {
		out[i] = ParseValue(t)
	}
	return out
}
