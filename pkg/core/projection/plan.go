package projection

import (
	"credit_appraisal/pkg/models"
)

// cols builds columns from (output name, logical suffix) pairs.
func cols(section string, pairs ...string) []Column {
	out := make([]Column, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Column{Name: pairs[i], Source: section + "." + pairs[i+1]})
	}
	return out
}

var (
	financialColumns = cols("financial_data",
		"value_sales", "sales",
		"value_expenses", "expenses",
		"OperatingProfit", "operating_profit",
		"OPM", "opm",
		"OtherIncome", "other_income",
		"Interest", "interest",
		"Depreciation", "depreciation",
		"ProfitBeforeTax", "profit_before_tax",
		"TaxPercentage", "tax_percentage",
		"NetProfit", "net_profit",
		"EPS", "eps",
	)

	companyFinancialColumns = cols("company_financials",
		"sales", "sales",
		"expenses", "expenses",
		"operating_profits", "operating_profit",
		"otherIncomes", "other_income",
		"interestExpenses", "interest",
		"depreciationCosts", "depreciation",
		"profitsbeforetax", "profit_before_tax",
		"tax_rate_percentages", "tax_percentage",
		"netprofits", "net_profit",
		"earningspershare", "eps",
		"dividendpayoutrates", "dividend_payout",
	)

	debtColumns = cols("debt_schedule",
		"totalborrowings", "borrowings_total",
		"longterm_borrowings", "long_term",
		"shorttermborrowings", "short_term",
		"leaseliabilities", "lease_liabilities",
		"otherborrowings", "other_borrowings",
		"totalliabilities", "liabilities_total",
		"noncontrollinginterest", "non_controlling_interest",
		"tradepayables", "trade_payables",
		"advances_fromcustomers", "advance_from_customers",
		"otherliabilityitems", "other_liability_items",
	)

	balanceSheetColumns = cols("balance_sheet",
		"EquityCapital", "equity_capital",
		"Reserves", "reserves",
		"Borrowings", "borrowings",
		"OtherLiabilities", "other_liabilities",
		"TotalLiabilities", "total_liabilities",
		"FixedAssets", "fixed_assets",
		"CWIP", "cwip",
		"Investments", "investments",
		"OtherAssets", "other_assets",
		"Inventories", "inventories",
		"TradeReceivables", "trade_receivables",
		"CashEquivalents", "cash_equivalents",
		"ShortTermLoans", "short_term_loans",
		"OtherAssetItems", "other_asset_items",
		"TotalAssets", "total_assets",
	)

	fixedAssetColumns = cols("fixed_assets",
		"land", "land",
		"building", "building",
		"plant_machinery", "plant_machinery",
		"equipment", "equipment",
		"furniture_fittings", "furniture_fittings",
		"vehicles", "vehicles",
		"wind_turbines", "wind_turbines",
		"intangible_assets", "intangible_assets",
		"other_fixed_assets", "other_fixed_assets",
		"gross_block", "gross_block",
		"accumulated_depreciation", "accumulated_depreciation",
		"cwip", "cwip",
		"investments", "investments",
		"inventories", "inventories",
		"trade_receivables", "trade_receivables",
		"cash_equivalents", "cash_equivalents",
		"short_term_loans", "short_term_loans",
		"other_asset_items", "other_asset_items",
		"total_assets", "total_assets",
	)

	cashFlowColumns = cols("cash_flow",
		"profit_from_operations", "profit_from_operations",
		"changes_in_receivables", "receivables",
		"changes_in_inventory", "inventory",
		"changes_in_loans_advances", "loans_advances",
		"other_wc_items", "other_wc_items",
		"direct_taxes", "direct_taxes",
		"fixed_assets_purchased", "fixed_assets_purchased",
		"fixed_assets_sold", "fixed_assets_sold",
		"investments_purchased", "investments_purchased",
		"investments_sold", "investments_sold",
		"interest_received", "interest_received",
		"invest_in_subsidies", "invest_in_subsidiaries",
		"investment_in_group_cos", "investment_in_group_cos",
		"other_investing_items", "other_investing_items",
		"proceeds_from_shares", "proceeds_from_shares",
		"proceeds_from_borrowings", "proceeds_from_borrowings",
		"repayment_of_borrowings", "repayment_of_borrowings",
		"interest_paid_fin", "interest_paid_fin",
		"dividends_paid", "dividends_paid",
		"financial_liabilities", "financial_liabilities",
		"other_financing_items", "other_financing_items",
	)

	pointFields = []Field{{Name: "point_header"}, {Name: "point_content"}}
)

// DefaultPlan is the full credit appraisal variable set.
func DefaultPlan() []Output {
	return []Output{
		{Name: "concalls", project: passthroughAt("concalls")},
		{Name: "recent_news", project: passthroughAt("recent_news")},
		{Name: "company_profile", project: profileAt("company_profile")},
		{Name: "promoters_dict", project: promoterColumns},
		{Name: "key_issues", project: entityRows("key_issues", pointFields)},
		{Name: "key_strengths", project: entityRows("key_strengths", pointFields)},
		{Name: "industry_risks", project: entityRows("industry_risks",
			[]Field{{Name: "source", Kind: URLField}, {Name: "risk"}})},
		{Name: "justification_of_proposal", project: commentaryAt("justification_of_proposal")},
		{Name: "Recommendation", project: commentaryAt("recommendation")},

		{Name: "brief_financials", project: tableSeries("financial_data")},
		{Name: "financial_dict", project: tableDict("financial_data", financialColumns)},
		{Name: "financial_commentary", project: sectionCommentary("financial_data")},

		{Name: "company_financials", project: tableSeries("company_financials")},
		{Name: "company_financials_dict", project: tableDict("company_financials", companyFinancialColumns)},
		{Name: "company_financials_commentary", project: sectionCommentary("company_financials")},

		{Name: "debt_data", project: nestedTableSeries("debt_schedule")},
		{Name: "debt_data_dict", project: tableDict("debt_schedule", debtColumns)},
		{Name: "debt_schedule_commentary", project: sectionCommentary("debt_schedule")},

		{Name: "balance_sheet_dict", project: tableDict("balance_sheet_analysis", balanceSheetColumns)},
		{Name: "balance_sheet_commentary", project: sectionCommentary("balance_sheet_analysis")},

		{Name: "fixed_assets_data", project: tableSeries("fixed_assets")},
		{Name: "fixed_assets_dict", project: tableDict("fixed_assets", fixedAssetColumns)},
		{Name: "fixed_assets_commentary", project: sectionCommentary("fixed_assets")},

		{Name: "cash_flow_data", project: cashFlowData},
		{Name: "cash_flow_analysis_dict", project: tableDict("cash_flow", cashFlowColumns)},
		{Name: "cash_flow_analysis_commentary", project: sectionCommentary("cash_flow")},

		{Name: "leverage_ratio_graphs", project: sectionGraphs("leverage_ratio")},
		{Name: "leverage_ratio_commentary", project: sectionCommentary("leverage_ratio")},
		{Name: "performance_ratio_graphs", project: sectionGraphs("performance_ratio")},
		{Name: "performance_ratio_commentary", project: sectionCommentary("performance_ratio")},
		{Name: "activity_ratio_graphs", project: sectionGraphs("activity_ratio")},
		{Name: "activity_ratio_commentary", project: sectionCommentary("activity_ratio")},
		{Name: "working_capital_graphs", project: sectionGraphs("working_capital_movement")},
		{Name: "working_capital_movement_commentary", project: sectionCommentary("working_capital_movement")},
		{Name: "ownership_structure_graphs", project: sectionGraphs("ownership_structure")},
		{Name: "ownership_structure_commentary", project: sectionCommentary("ownership_structure")},

		{Name: "peer_ratings", project: entityRows("peer_ratings",
			[]Field{{Name: "company_name"}, {Name: "long_term_rating"}, {Name: "short_term_rating"}})},
		{Name: "peer_commentary", project: sectionCommentary("peer_ratings")},

		{Name: "subsidiary_jv_info_data", project: subsidiaryInfo},
		{Name: "financial_analysis_data", project: financialAnalysis},
	}
}

func passthroughAt(logical string) projectFunc {
	return func(p *Projector, root scope) (any, error) {
		v, _, err := p.require(root, logical)
		if err != nil {
			return nil, err
		}
		return passthrough(v), nil
	}
}

func profileAt(logical string) projectFunc {
	return func(p *Projector, root scope) (any, error) {
		v, path, err := p.require(root, logical)
		if err != nil {
			return nil, err
		}
		return p.profile(v, path)
	}
}

func commentaryAt(logical string) projectFunc {
	return func(p *Projector, root scope) (any, error) {
		v, path, err := p.require(root, logical)
		if err != nil {
			return nil, err
		}
		return p.commentary(v, path)
	}
}

// sectionRows resolves "<section>.list" inside the section and projects its
// entities, each field resolved as "<section>.<field>".
func (p *Projector) sectionRows(root scope, section string, fields []Field) ([]map[string]string, error) {
	sec, _, err := p.object(root, section)
	if err != nil {
		return nil, err
	}
	items, path, err := p.list(sec, section+".list")
	if err != nil {
		return nil, err
	}
	return p.rows(items, path, section, fields)
}

func entityRows(section string, fields []Field) projectFunc {
	return func(p *Projector, root scope) (any, error) {
		return p.sectionRows(root, section, fields)
	}
}

func promoterColumns(p *Projector, root scope) (any, error) {
	rows, err := p.sectionRows(root, "promoters", []Field{{Name: "name"}, {Name: "experience"}})
	if err != nil {
		return nil, err
	}
	return pivot(rows, map[string]string{"name": "names", "experience": "experiences"}), nil
}

// table resolves "<section>.table" inside the required section.
func (p *Projector) table(root scope, section string) (scope, error) {
	sec, _, err := p.object(root, section)
	if err != nil {
		return scope{}, err
	}
	tbl, _, err := p.object(sec, section+".table")
	return tbl, err
}

func tableSeries(section string) projectFunc {
	return func(p *Projector, root scope) (any, error) {
		tbl, err := p.table(root, section)
		if err != nil {
			return nil, err
		}
		return p.seriesTable(tbl)
	}
}

func nestedTableSeries(section string) projectFunc {
	return func(p *Projector, root scope) (any, error) {
		tbl, err := p.table(root, section)
		if err != nil {
			return nil, err
		}
		return p.groupedTables(tbl)
	}
}

func tableDict(section string, columns []Column) projectFunc {
	return func(p *Projector, root scope) (any, error) {
		tbl, err := p.table(root, section)
		if err != nil {
			return nil, err
		}
		return p.columnar(tbl, columns)
	}
}

func sectionCommentary(section string) projectFunc {
	return func(p *Projector, root scope) (any, error) {
		sec, _, err := p.object(root, section)
		if err != nil {
			return nil, err
		}
		v, path, err := p.require(sec, section+".commentary")
		if err != nil {
			return nil, err
		}
		return p.commentary(v, path)
	}
}

func sectionGraphs(section string) projectFunc {
	return func(p *Projector, root scope) (any, error) {
		sec, _, err := p.object(root, section)
		if err != nil {
			return nil, err
		}
		v, path, err := p.require(sec, section+".graphs")
		if err != nil {
			return nil, err
		}
		return p.graphs(v, path)
	}
}

func cashFlowData(p *Projector, root scope) (any, error) {
	sec, _, err := p.object(root, "cash_flow")
	if err != nil {
		return nil, err
	}

	commentary, err := sectionCommentary("cash_flow")(p, root)
	if err != nil {
		return nil, err
	}

	graph, _, err := p.object(sec, "cash_flow.graph")
	if err != nil {
		return nil, err
	}
	uv, upath, err := p.require(graph, "graph.url")
	if err != nil {
		return nil, err
	}
	url, err := urlText(uv, upath)
	if err != nil {
		return nil, err
	}

	gv, gpath, err := p.require(sec, "cash_flow.graph_commentary")
	if err != nil {
		return nil, err
	}
	graphCommentary, err := p.commentary(gv, gpath)
	if err != nil {
		return nil, err
	}

	table, err := tableSeries("cash_flow")(p, root)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"commentary":       commentary,
		"graph":            map[string]string{"url": url},
		"graph_commentary": graphCommentary,
		"table":            table,
	}, nil
}

func subsidiaryInfo(p *Projector, root scope) (any, error) {
	sec, _, err := p.object(root, "subsidiary_jv_info")
	if err != nil {
		return nil, err
	}

	items, path, err := p.list(sec, "subsidiary_jv_info.list")
	if err != nil {
		return nil, err
	}
	subsidiaries, err := p.rows(items, path, "subsidiary", []Field{
		{Name: "subsidiary_name"},
		{Name: "date_of_creation"},
		{Name: "interest"},
		{Name: "location"},
	})
	if err != nil {
		return nil, err
	}

	jv, jvPath, err := p.require(sec, "subsidiary_jv_info.jv_information")
	if err != nil {
		return nil, err
	}
	jvInfo, err := p.commentary(jv, jvPath)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"subsidiary":     subsidiaries,
		"JV_information": jvInfo,
	}, nil
}

// financialAnalysis is optional: older reports carry it, newer ones do not.
func financialAnalysis(p *Projector, root scope) (any, error) {
	out := map[string]any{
		"Profitability": models.Table{},
		"commentary":    []string{},
	}

	sec, ok, err := p.object(root, "financial_analysis")
	if err != nil {
		return nil, err
	}
	if !ok {
		return out, nil
	}

	profitability, ok, err := p.object(sec, "financial_analysis.profitability")
	if err != nil {
		return nil, err
	}
	if ok {
		series, err := p.seriesTable(profitability)
		if err != nil {
			return nil, err
		}
		out["Profitability"] = series
	}

	v, path, err := p.require(sec, "financial_analysis.commentary")
	if err != nil {
		return nil, err
	}
	commentary, err := p.commentary(v, path)
	if err != nil {
		return nil, err
	}
	out["commentary"] = commentary
	return out, nil
}
