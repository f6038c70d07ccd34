package edgar

import (
	"context"
	"fmt"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

// FactsProvider reads structured XBRL facts from the EDGAR companyfacts API
// and maps us-gaap concepts to the canonical metric keys the reports use.
type FactsProvider struct {
	client *Client
}

func NewFactsProvider(client *Client) *FactsProvider {
	return &FactsProvider{client: client}
}

// conceptCandidates lists, per canonical metric, the us-gaap concepts
// filers actually tag, in preference order. Tagging varies by filer and
// filing era, so each metric carries several fallbacks.
var conceptCandidates = []struct {
	key      string
	concepts []string
}{
	{domain.MetricRevenue, []string{
		"Revenues",
		"SalesRevenueNet",
		"RevenueFromContractWithCustomerExcludingAssessedTax",
		"RevenuesNetOfInterestExpense",
		"NetSales",
		"SalesRevenueServicesNet",
	}},
	{domain.MetricNetIncome, []string{
		"NetIncomeLoss",
		"ProfitLoss",
	}},
	{domain.MetricOperatingCashFlow, []string{
		"NetCashProvidedByUsedInOperatingActivities",
		"NetCashProvidedByUsedInOperatingActivitiesContinuingOperations",
	}},
	{domain.MetricCapex, []string{
		"PaymentsToAcquirePropertyPlantAndEquipment",
		"PaymentsToAcquireProductiveAssets",
		"CapitalExpendituresIncurredButNotYetPaid",
		"PaymentsToAcquireBusinessesAndInterestsInAffiliates",
	}},
	{domain.MetricTotalAssets, []string{
		"Assets",
	}},
	{domain.MetricTotalLiabilities, []string{
		"Liabilities",
		"LiabilitiesCurrentAndNoncurrent",
	}},
}

type companyFactsResponse struct {
	Facts map[string]map[string]factConcept `json:"facts"`
}

type factConcept struct {
	Units map[string][]factPoint `json:"units"`
}

type factPoint struct {
	End  string  `json:"end"`
	Val  float64 `json:"val"`
	Form string  `json:"form"`
}

// LatestFacts returns the most recent annual value for every canonical
// metric the company reports in USD.
func (p *FactsProvider) LatestFacts(ctx context.Context, cik string) ([]domain.Metric, error) {
	padded := domain.NormalizeCIK(cik)
	url := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", p.client.apiBase, padded)

	var response companyFactsResponse
	if err := p.client.getJSON(ctx, url, &response, "edgar.company_facts"); err != nil {
		if isNotFound(err) {
			return nil, domain.WrapError(domain.ErrFilingNotFound, "fetch company facts",
				fmt.Errorf("no XBRL facts for cik %s", padded))
		}
		return nil, err
	}

	gaap := response.Facts["us-gaap"]
	var metrics []domain.Metric
	for _, candidate := range conceptCandidates {
		point, ok := latestAnnualValue(gaap, candidate.concepts)
		if !ok {
			continue
		}
		metrics = append(metrics, domain.Metric{
			Key:     candidate.key,
			Value:   point.Val,
			Unit:    "USD",
			Display: domain.FormatUSD(point.Val),
		})
	}
	return metrics, nil
}

// latestAnnualValue picks the first candidate concept with USD data and
// returns its newest point. Values reported on a 10-K win over interim
// forms; within the same form the latest period end wins.
func latestAnnualValue(gaap map[string]factConcept, concepts []string) (factPoint, bool) {
	for _, concept := range concepts {
		points := gaap[concept].Units["USD"]
		if len(points) == 0 {
			continue
		}
		best := points[0]
		for _, point := range points[1:] {
			if betterFactPoint(point, best) {
				best = point
			}
		}
		return best, true
	}
	return factPoint{}, false
}

func betterFactPoint(candidate, current factPoint) bool {
	candidateAnnual := candidate.Form == "10-K"
	currentAnnual := current.Form == "10-K"
	if candidateAnnual != currentAnnual {
		return candidateAnnual
	}
	return candidate.End > current.End
}
