package exchange

import (
	"fmt"
	"math/big"
	"strings"

	xerrors "OpenMCP-DeFi/internal/errors"
)

// etherDecimals 是原生币与 wei 之间的小数位数。
const etherDecimals = 18

// ParseWei 解析以 wei 为单位的十进制整数金额。
func ParseWei(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, xerrors.New(CodeParse, "金额不能为空")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, xerrors.New(CodeParse, fmt.Sprintf("无法解析金额 %q", raw))
	}
	if value.Sign() < 0 {
		return nil, xerrors.New(CodeParse, fmt.Sprintf("金额 %q 不能为负数", raw))
	}
	return value, nil
}

// ParseEther 将以太为单位的十进制金额转换为 wei，支持最多 18 位小数。
func ParseEther(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, xerrors.New(CodeParse, "金额不能为空")
	}
	if strings.HasPrefix(trimmed, "-") {
		return nil, xerrors.New(CodeParse, fmt.Sprintf("金额 %q 不能为负数", raw))
	}

	whole := trimmed
	fraction := ""
	if idx := strings.IndexByte(trimmed, '.'); idx >= 0 {
		whole = trimmed[:idx]
		fraction = trimmed[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(fraction) > etherDecimals {
		return nil, xerrors.New(CodeParse, fmt.Sprintf("金额 %q 的小数位超过 %d 位", raw, etherDecimals))
	}
	// 整数与小数部分必须是纯数字，防止 big.Int 接受内嵌的符号。
	if !isDigits(whole) || (fraction != "" && !isDigits(fraction)) {
		return nil, xerrors.New(CodeParse, fmt.Sprintf("无法解析金额 %q", raw))
	}

	wholePart, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return nil, xerrors.New(CodeParse, fmt.Sprintf("无法解析金额 %q", raw))
	}

	fractionPart := big.NewInt(0)
	if fraction != "" {
		fractionPart, ok = new(big.Int).SetString(fraction, 10)
		if !ok {
			return nil, xerrors.New(CodeParse, fmt.Sprintf("无法解析金额 %q", raw))
		}
		// 补齐到 18 位小数。
		for i := len(fraction); i < etherDecimals; i++ {
			fractionPart.Mul(fractionPart, big.NewInt(10))
		}
	}

	wei := new(big.Int).Mul(wholePart, weiPerEther())
	wei.Add(wei, fractionPart)
	return wei, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func weiPerEther() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(etherDecimals), nil)
}
