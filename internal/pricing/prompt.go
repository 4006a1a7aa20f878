package pricing

import (
	"strings"
	"text/template"

	"butik/backend/internal/domain"
)

var promptTemplate = template.Must(template.New("pricing").Parse(
	`You are an AI assistant designed to provide pricing and inventory suggestions for a freelancer selling clothing items.

Analyze the following product information and provide the suggested price, profit trend analysis, low selling warning, restock suggestion, and a daily smart tip.

Product Name: {{.ProductName}}
Category: {{.Category}}
Buy Price: {{.BuyPrice}}
Sell Price: {{.SellPrice}}
Quantity: {{.Quantity}}
Color: {{.Color}}
Size: {{.Size}}
Profit Margin: {{.ProfitMargin}}
Past Sales Data: {{.PastSalesData}}

Respond with the following output format:
{
  "suggestedPrice": "The AI-suggested optimal selling price for the product.",
  "profitTrendAnalysis": "An analysis of the profit trends for the product.",
  "lowSellingWarning": "A warning message if the product is selling poorly.",
  "restockSuggestion": "A suggestion for restocking the product, if needed.",
  "dailySmartTip": "A daily smart tip related to pricing or inventory management."
}`))

// RenderPrompt fills the fixed template with all nine input fields.
func RenderPrompt(in domain.PricingSuggestionInput) (string, error) {
	var b strings.Builder
	if err := promptTemplate.Execute(&b, in); err != nil {
		return "", err
	}
	return b.String(), nil
}
