package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
)

// AdInsights agrega os insights retornados pela Graph API.
type AdInsights struct {
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Spend       float64 `json:"spend"`
	CPC         float64 `json:"cpc"`
	CPM         float64 `json:"cpm"`
	CTR         float64 `json:"ctr"`
	Frequency   float64 `json:"frequency"`
	Reach       int64   `json:"reach"`
}

// Campaign é uma campanha ativa da conta de anúncios.
type Campaign struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Status         string `json:"status"`
	Objective      string `json:"objective"`
	DailyBudget    string `json:"daily_budget,omitempty"`
	LifetimeBudget string `json:"lifetime_budget,omitempty"`
	CreatedTime    string `json:"created_time"`
	UpdatedTime    string `json:"updated_time"`
}

// Client fala com a Meta Graph API. Chamadas são fail-fast: timeout no
// http.Client e circuit breaker por cima; nenhum retry automático.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "meta-graph",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

type insightsEnvelope struct {
	Data  []map[string]string `json:"data"`
	Error *graphError         `json:"error"`
}

type campaignsEnvelope struct {
	Data  []Campaign  `json:"data"`
	Error *graphError `json:"error"`
}

type graphError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// GetAdInsights busca e agrega os insights da conta (ou de uma campanha
// específica quando campaignID é informado) no período pedido.
func (c *Client) GetAdInsights(ctx context.Context, accessToken, adAccountID, datePreset, campaignID string) (*AdInsights, error) {
	endpoint := fmt.Sprintf("act_%s/insights", adAccountID)
	if campaignID != "" {
		endpoint = campaignID + "/insights"
	}

	params := url.Values{}
	params.Set("fields", "impressions,clicks,spend,cpc,cpm,ctr,frequency,reach")
	params.Set("date_preset", datePreset)
	params.Set("access_token", accessToken)

	var envelope insightsEnvelope
	if err := c.get(ctx, endpoint, params, &envelope); err != nil {
		return nil, err
	}
	if envelope.Error != nil {
		return nil, fmt.Errorf("meta graph: %s", envelope.Error.Message)
	}

	// Agrega os totais e deriva as taxas localmente, com denominador
	// zero virando zero.
	var agg AdInsights
	for _, row := range envelope.Data {
		agg.Impressions += parseInt(row["impressions"])
		agg.Clicks += parseInt(row["clicks"])
		agg.Spend += parseFloat(row["spend"])
		agg.Reach += parseInt(row["reach"])
	}
	if agg.Clicks > 0 {
		agg.CPC = round2(agg.Spend / float64(agg.Clicks))
	}
	if agg.Impressions > 0 {
		agg.CPM = round2(agg.Spend / float64(agg.Impressions) * 1000)
		agg.CTR = round2(float64(agg.Clicks) / float64(agg.Impressions) * 100)
	}
	if agg.Reach > 0 {
		agg.Frequency = round2(float64(agg.Impressions) / float64(agg.Reach))
	}
	return &agg, nil
}

// GetActiveCampaigns lista as campanhas da conta de anúncios.
func (c *Client) GetActiveCampaigns(ctx context.Context, accessToken, adAccountID string) ([]Campaign, error) {
	params := url.Values{}
	params.Set("fields", "id,name,status,objective,daily_budget,lifetime_budget,created_time,updated_time")
	params.Set("access_token", accessToken)

	var envelope campaignsEnvelope
	if err := c.get(ctx, fmt.Sprintf("act_%s/campaigns", adAccountID), params, &envelope); err != nil {
		return nil, err
	}
	if envelope.Error != nil {
		return nil, fmt.Errorf("meta graph: %s", envelope.Error.Message)
	}
	return envelope.Data, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decodificar resposta da graph api: %w", err)
		}
		return nil, nil
	})
	return err
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
