package utils

import (
	"strings"
)

// FormatSymbol 将 TradingView ticker 转换为券商可识别的加密货币 symbol，BTCUSD -> BTC/USD
func FormatSymbol(tvSymbol string) string {
	// 后缀 quote 币种列表
	quotes := []string{"USDT", "USDC", "USD"}

	s := strings.ToUpper(strings.TrimSpace(tvSymbol))
	for _, q := range quotes {
		if strings.HasSuffix(s, q) && len(s) > len(q) {
			base := strings.TrimSuffix(s, q)

			if strings.HasSuffix(base, "/") {
				return base + q
			}
			return base + "/" + q
		}
	}
	// 没匹配到就返回原始值
	return tvSymbol
}
