package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/pendle-vault/pvm/internal/engine"
	"github.com/pendle-vault/pvm/internal/types"
)

const (
	testMarket = "0x0000000000000000000000000000000000111111"
	testToken  = "0x0000000000000000000000000000000000aaaaaa"
	testUser   = "0x000000000000000000000000000000000000a11c"
)

// stubGateway satisfies the engine's chain surface with fixed answers; the
// handlers under test only read engine state.
type stubGateway struct {
	rewardTokens []types.TokenID
}

func (s *stubGateway) MarketRewardTokens(context.Context, types.MarketID) ([]types.TokenID, error) {
	return s.rewardTokens, nil
}

func (s *stubGateway) RedeemMarketRewards(context.Context, types.MarketID) error { return nil }

func (s *stubGateway) BalanceOf(context.Context, types.TokenID, string) (sdkmath.Int, error) {
	return sdkmath.ZeroInt(), nil
}

func (s *stubGateway) Transfer(context.Context, types.TokenID, string, sdkmath.Int) error {
	return nil
}

func (s *stubGateway) TransferFrom(context.Context, types.TokenID, string, string, sdkmath.Int) error {
	return nil
}

func newTestServer(t *testing.T) *WebServer {
	t.Helper()
	eng, err := engine.New(engine.Config{
		Gateway:      &stubGateway{rewardTokens: []types.TokenID{testToken}},
		VaultAddress: "0x00000000000000000000000000000000000va017",
		PrimaryToken: testToken,
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, eng.RegisterMarket(ctx, testMarket))
	require.NoError(t, eng.Deposit(ctx, testMarket, testUser, sdkmath.NewInt(100)))

	return NewWebServer("0", eng)
}

func doRequest(ws *WebServer, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ws.router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthDegradedWithoutDatabase(t *testing.T) {
	ws := newTestServer(t)
	rec := doRequest(ws, http.MethodGet, "/health")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "degraded", body["status"])
	require.Equal(t, false, body["database"])
	require.Equal(t, float64(1), body["markets"])
}

func TestGetMarketsListsRegistered(t *testing.T) {
	ws := newTestServer(t)
	rec := doRequest(ws, http.MethodGet, "/api/markets")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, float64(1), body["count"])

	markets := body["markets"].([]interface{})
	market := markets[0].(map[string]interface{})
	require.Equal(t, testMarket, market["id"])
	require.Equal(t, "100", market["total_deposited"])
}

func TestGetMarketNotFound(t *testing.T) {
	ws := newTestServer(t)
	rec := doRequest(ws, http.MethodGet, "/api/markets/0xdeadbeef")

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, decodeBody(t, rec)["error"], "not registered")
}

func TestGetPositionReturnsDepositAndPending(t *testing.T) {
	ws := newTestServer(t)
	rec := doRequest(ws, http.MethodGet, "/api/markets/"+testMarket+"/positions/"+testUser)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "100", body["deposited_amount"])

	pending := body["pending_rewards"].(map[string]interface{})
	require.Equal(t, "0", pending[testToken])
}

func TestGetEventsRejectsBadLimit(t *testing.T) {
	ws := newTestServer(t)

	require.Equal(t, http.StatusBadRequest, doRequest(ws, http.MethodGet, "/api/events?limit=0").Code)
	require.Equal(t, http.StatusBadRequest, doRequest(ws, http.MethodGet, "/api/events?limit=9999").Code)
	require.Equal(t, http.StatusBadRequest, doRequest(ws, http.MethodGet, "/api/events?limit=abc").Code)
}

func TestGetFeesReturnsPool(t *testing.T) {
	ws := newTestServer(t)
	rec := doRequest(ws, http.MethodGet, "/api/fees")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "0", decodeBody(t, rec)["accumulated_fee"])
}

func TestDashboardServesEmbeddedPage(t *testing.T) {
	ws := newTestServer(t)
	rec := doRequest(ws, http.MethodGet, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.True(t, strings.Contains(rec.Body.String(), "<html"))
}

func TestCORSHeadersOnAPIResponses(t *testing.T) {
	ws := newTestServer(t)
	rec := doRequest(ws, http.MethodGet, "/api/markets")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
