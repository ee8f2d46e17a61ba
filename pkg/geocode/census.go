package geocode

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	censusBaseURL   = "https://geocoding.geo.census.gov/geocoder"
	censusBenchmark = "Public_AR_Current"

	// BatchLimit is the most addresses one Census batch call accepts.
	BatchLimit = 10000
)

type oneLineResponse struct {
	Result struct {
		AddressMatches []struct {
			Coordinates struct {
				X float64 `json:"x"`
				Y float64 `json:"y"`
			} `json:"coordinates"`
			MatchedAddress string `json:"matchedAddress"`
		} `json:"addressMatches"`
	} `json:"result"`
}

func (c *client) geocodeOneLine(ctx context.Context, addr Address) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit")
	}

	params := url.Values{
		"address":   {oneLine(addr)},
		"benchmark": {censusBenchmark},
		"format":    {"json"},
	}
	reqURL := c.baseURL + "/locations/onelineaddress?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: census returned status %d", resp.StatusCode)
	}

	var parsed oneLineResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}
	if len(parsed.Result.AddressMatches) == 0 {
		return &Result{}, nil
	}
	m := parsed.Result.AddressMatches[0]
	return &Result{
		Latitude:  m.Coordinates.Y,
		Longitude: m.Coordinates.X,
		Quality:   "rooftop",
		Matched:   true,
	}, nil
}

func (c *client) geocodeBatch(ctx context.Context, addrs []Address) ([]Result, error) {
	if len(addrs) > BatchLimit {
		return nil, eris.Errorf("geocode: batch of %d exceeds limit %d", len(addrs), BatchLimit)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit")
	}

	idToIdx := make(map[string]int, len(addrs))
	var addressFile bytes.Buffer
	cw := csv.NewWriter(&addressFile)
	for i, addr := range addrs {
		idToIdx[addr.ID] = i
		state := addr.State
		if state == "" {
			state = "NY"
		}
		if err := cw.Write([]string{addr.ID, addr.Street, addr.City, state, addr.Zip}); err != nil {
			return nil, eris.Wrap(err, "geocode: build address file")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, eris.Wrap(err, "geocode: build address file")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("benchmark", censusBenchmark); err != nil {
		return nil, eris.Wrap(err, "geocode: write benchmark field")
	}
	part, err := mw.CreateFormFile("addressFile", "addresses.csv")
	if err != nil {
		return nil, eris.Wrap(err, "geocode: create form file")
	}
	if _, err := io.Copy(part, &addressFile); err != nil {
		return nil, eris.Wrap(err, "geocode: write address file")
	}
	if err := mw.Close(); err != nil {
		return nil, eris.Wrap(err, "geocode: close form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/locations/addressbatch", &body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build batch request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: batch request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: census batch returned status %d", resp.StatusCode)
	}
	return parseBatchResponse(resp.Body, idToIdx, len(addrs))
}

// parseBatchResponse reads the batch CSV the Census returns. Rows are
// id, input address, match, exactness, matched address, "lon,lat",
// tiger line id, side. Unmatched rows have fewer fields.
func parseBatchResponse(r io.Reader, idToIdx map[string]int, total int) ([]Result, error) {
	results := make([]Result, total)

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "geocode: parse batch response")
		}
		if len(rec) < 3 {
			continue
		}
		idx, ok := idToIdx[strings.TrimSpace(rec[0])]
		if !ok {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(rec[2]), "Match") || len(rec) < 6 {
			continue
		}
		lng, lat, err := parseCoords(rec[5])
		if err != nil {
			continue
		}
		quality := "range"
		if strings.EqualFold(strings.TrimSpace(rec[3]), "exact") {
			quality = "rooftop"
		}
		results[idx] = Result{Latitude: lat, Longitude: lng, Quality: quality, Matched: true}
	}
	return results, nil
}

func parseCoords(s string) (lng, lat float64, err error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, eris.Errorf("geocode: invalid coordinates %q", s)
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, eris.Wrap(err, "geocode: parse longitude")
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, eris.Wrap(err, "geocode: parse latitude")
	}
	return lng, lat, nil
}

func oneLine(addr Address) string {
	state := addr.State
	if state == "" {
		state = "NY"
	}
	var parts []string
	for _, p := range []string{addr.Street, addr.City, state, addr.Zip} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
