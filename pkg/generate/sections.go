package generate

// Section is one unit of the rendered document. Query drives retrieval;
// Instruction tells the model what to write from the retrieved context.
type Section struct {
	Key         string
	Name        string
	Query       string
	Instruction string
}

// DefaultSections is the offering memorandum layout, generated in order.
func DefaultSections() []Section {
	return []Section{
		{
			Key:         "executive_summary",
			Name:        "Executive Summary",
			Query:       "company overview, business model, revenue, key investment highlights",
			Instruction: "Write a concise executive summary of the business for prospective buyers. Cover what the company does, how it makes money, and the headline investment highlights.",
		},
		{
			Key:         "company_overview",
			Name:        "Company Overview",
			Query:       "company history, founding, ownership, locations, organizational structure, employees",
			Instruction: "Describe the company's history, ownership, locations, and organization. Stick to facts present in the context.",
		},
		{
			Key:         "products_services",
			Name:        "Products & Services",
			Query:       "products, services, offerings, pricing, customers, contracts",
			Instruction: "Summarize the product and service lines, their pricing model, and the customer base they serve.",
		},
		{
			Key:         "market_opportunity",
			Name:        "Market Opportunity",
			Query:       "market size, industry trends, competition, competitive advantages, positioning",
			Instruction: "Describe the market the company operates in, relevant trends, the competitive landscape, and the company's differentiation.",
		},
		{
			Key:         "financial_overview",
			Name:        "Financial Overview",
			Query:       "revenue, profit, margins, EBITDA, financial statements, historical performance",
			Instruction: "Present the financial picture: revenue, profitability, margins, and notable trends. Quote figures exactly as they appear in the context and flag gaps rather than inventing numbers.",
		},
		{
			Key:         "growth_opportunities",
			Name:        "Growth Opportunities",
			Query:       "growth opportunities, expansion plans, untapped markets, new products",
			Instruction: "List credible growth levers a buyer could pursue, grounded in the context.",
		},
		{
			Key:         "risks",
			Name:        "Risk Factors",
			Query:       "risks, customer concentration, key person dependency, litigation, regulatory issues",
			Instruction: "Enumerate the material risks a buyer should weigh, with the evidence behind each.",
		},
		{
			Key:         "transaction_overview",
			Name:        "Transaction Overview",
			Query:       "reason for sale, transaction structure, transition, seller involvement",
			Instruction: "Summarize why the business is for sale and any known transaction or transition considerations.",
		},
	}
}
