package advisor

// FallbackVersion identifies the fallbackRecommendations list.
const FallbackVersion = "fallback-v1"

var fallbackRecommendations = [...]string{
	"Build an emergency fund covering 3-6 months of expenses to protect against unexpected financial setbacks.",
	"Pay off high-interest debt first, such as credit cards, to reduce interest payments and improve financial health.",
	"Diversify your investment portfolio across different asset classes to minimize risk and maximize returns.",
	"Contribute regularly to retirement accounts to take advantage of compound growth and tax benefits.",
	"Review and optimize your budget monthly to identify areas where you can reduce expenses and increase savings.",
	"Consider increasing your income through side hustles, career advancement, or skill development.",
	"Protect your assets with appropriate insurance coverage including health, life, and property insurance.",
}

// FallbackRecommendations returns a fresh copy of the static list served
// when the model cannot be reached or its reply is unusable.
func FallbackRecommendations() []string {
	out := make([]string, len(fallbackRecommendations))
	copy(out, fallbackRecommendations[:])
	return out
}
