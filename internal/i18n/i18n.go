// Package i18n holds the user-facing strings of liketerm in English and
// Traditional Chinese.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var supported = []language.Tag{
	language.English,
	language.TraditionalChinese,
}

var (
	builder = catalog.NewBuilder(catalog.Fallback(language.English))
	matcher = language.NewMatcher(supported)
)

var english = map[string]string{
	"UNSTAKE_NOT_ENOUGH_FEE":        "Insufficient balance to pay the transaction fee.",
	"UNSTAKE_AMOUNT_EXCEED_MAX":     "The amount exceeds what you have staked with this validator.",
	"UNSTAKE_AMOUNT_LESS_THAN_ZERO": "The amount must be greater than 0.",
	"STAKE_NOT_ENOUGH_FEE":          "Insufficient balance to pay the transaction fee.",
	"STAKE_AMOUNT_EXCEED_MAX":       "The amount exceeds your available balance.",
	"STAKE_AMOUNT_LESS_THAN_ZERO":   "The amount must be greater than 0.",

	"undelegate.title":       "Unstake from %s",
	"delegate.title":         "Stake to %s",
	"amount.max":             "Max: %s",
	"amount.fee":             "Estimated fee: %s",
	"amount.preparing":       "Preparing transaction...",
	"amount.civic_keep":      "Keep Civic Liker status: %s",
	"amount.civic_reach":     "Reach Civic Liker status: %s",
	"signing.title":          "Review Transaction",
	"signing.broadcasting":   "Broadcasting transaction...",
	"signing.success":        "Transaction submitted: %s",
	"signing.failed":         "Transaction failed: %v",
	"dashboard.available":    "Available: %s",
	"dashboard.delegated":    "Staked: %s",
	"dashboard.no_delegates": "You have not staked with any validator yet.",
	"dashboard.validators":   "Validators",
	"dashboard.delegations":  "Your Delegations",
}

var traditionalChinese = map[string]string{
	"UNSTAKE_NOT_ENOUGH_FEE":        "餘額不足以支付手續費。",
	"UNSTAKE_AMOUNT_EXCEED_MAX":     "金額超過你在此驗證人的委託數量。",
	"UNSTAKE_AMOUNT_LESS_THAN_ZERO": "金額必須大於 0。",
	"STAKE_NOT_ENOUGH_FEE":          "餘額不足以支付手續費。",
	"STAKE_AMOUNT_EXCEED_MAX":       "金額超過你的可用餘額。",
	"STAKE_AMOUNT_LESS_THAN_ZERO":   "金額必須大於 0。",

	"undelegate.title":       "從 %s 取消委託",
	"delegate.title":         "委託至 %s",
	"amount.max":             "上限：%s",
	"amount.fee":             "預計手續費：%s",
	"amount.preparing":       "正在準備交易⋯",
	"amount.civic_keep":      "保留讚賞公民資格：%s",
	"amount.civic_reach":     "成為讚賞公民：%s",
	"signing.title":          "確認交易",
	"signing.broadcasting":   "正在廣播交易⋯",
	"signing.success":        "交易已送出：%s",
	"signing.failed":         "交易失敗：%v",
	"dashboard.available":    "可用餘額：%s",
	"dashboard.delegated":    "已委託：%s",
	"dashboard.no_delegates": "你尚未委託任何驗證人。",
	"dashboard.validators":   "驗證人",
	"dashboard.delegations":  "你的委託",
}

func init() {
	for key, msg := range english {
		if err := builder.SetString(language.English, key, msg); err != nil {
			panic(err)
		}
	}
	for key, msg := range traditionalChinese {
		if err := builder.SetString(language.TraditionalChinese, key, msg); err != nil {
			panic(err)
		}
	}
}

type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// New picks the closest supported language for locale, e.g. "zh-TW" or "en-US".
func New(locale string) *Translator {
	_, index := language.MatchStrings(matcher, locale)
	tag := supported[index]
	return &Translator{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(builder)),
	}
}

// T formats the message stored under key. Unknown keys are printed as-is.
func (t *Translator) T(key string, args ...interface{}) string {
	return t.printer.Sprintf(key, args...)
}

func (t *Translator) Language() language.Tag {
	return t.tag
}

// Has reports whether key has an English entry.
func Has(key string) bool {
	_, ok := english[key]
	return ok
}
