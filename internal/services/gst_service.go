package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

// GSTDetails is the subset of the GST registry we keep.
type GSTDetails struct {
	GSTIN     string
	TradeName string
	LegalName string
	Address   string
	Status    string
}

// GSTLookup resolves a GSTIN against the registry.
type GSTLookup interface {
	Lookup(ctx context.Context, gstin string) (*GSTDetails, error)
}

// GSTClient queries a GSTIN check API of the form <base>/<key>/<gstin>.
type GSTClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewGSTClient(baseURL, apiKey string) *GSTClient {
	return &GSTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// NormalizeGSTIN upper-cases and checks the 15 character GSTIN layout.
func NormalizeGSTIN(gstin string) (string, error) {
	gstin = strings.ToUpper(strings.TrimSpace(gstin))
	if !gstinPattern.MatchString(gstin) {
		return "", validationError("invalid GSTIN format")
	}
	return gstin, nil
}

// Lookup validates the format and, when an API key is configured, the
// registration itself.
func (c *GSTClient) Lookup(ctx context.Context, gstin string) (*GSTDetails, error) {
	gstin, err := NormalizeGSTIN(gstin)
	if err != nil {
		return nil, err
	}
	if c.apiKey == "" {
		return &GSTDetails{GSTIN: gstin}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/%s", c.baseURL, c.apiKey, gstin), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gst lookup: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gst lookup returned status %d", resp.StatusCode)
	}

	res := gjson.ParseBytes(body)
	if !res.Get("flag").Bool() {
		msg := res.Get("message").String()
		if msg == "" {
			msg = "GSTIN not found"
		}
		return nil, validationError("%s", msg)
	}

	data := res.Get("data")
	return &GSTDetails{
		GSTIN:     gstin,
		TradeName: data.Get("tradeNam").String(),
		LegalName: data.Get("lgnm").String(),
		Address:   formatGSTAddress(data.Get("pradr.addr")),
		Status:    data.Get("sts").String(),
	}, nil
}

func formatGSTAddress(addr gjson.Result) string {
	if !addr.Exists() {
		return ""
	}
	parts := []string{}
	for _, key := range []string{"bno", "flno", "bnm", "st", "loc", "dst", "stcd", "pncd"} {
		if v := strings.TrimSpace(addr.Get(key).String()); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}
