package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"collect-the-world-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOracle serves chat completions whose content is fixed per test.
func fakeOracle(t *testing.T, content string, calls *int) *OracleClient {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		var req oracleRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Messages)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		})
	}))
	t.Cleanup(server.Close)
	return &OracleClient{
		BaseURL:    server.URL,
		Model:      "test-model",
		HTTPClient: server.Client(),
	}
}

func TestParseVerdict(t *testing.T) {
	word := parseVerdict("en", "teapot", "(yes,yes,no,no,no,en,kitchen)")
	require.NotNil(t, word)
	assert.True(t, word.Collectable())
	assert.Equal(t, "kitchen", word.Category)
	assert.Equal(t, "en", word.LocaleGuess)

	// The stop token usually swallows the closing paren.
	word = parseVerdict("en", "teapot", "(yes, yes, no, no, no, en, kitchen")
	require.NotNil(t, word)
	assert.True(t, word.Collectable())

	assert.Nil(t, parseVerdict("en", "teapot", "certainly!"))
	assert.Nil(t, parseVerdict("en", "teapot", "(yes,yes,no)"))
}

func TestWordCollectable(t *testing.T) {
	base := models.Word{IsRealItem: true, CanMakePicture: true}
	assert.True(t, base.Collectable())

	abbreviation := base
	abbreviation.IsAbbreviation = true
	assert.False(t, abbreviation.Collectable())

	company := base
	company.IsPersonCityOrCompany = true
	assert.False(t, company.Collectable())

	// Branded products are collectable even though they name a company.
	product := company
	product.IsProduct = true
	assert.True(t, product.Collectable())

	abstract := models.Word{IsRealItem: true}
	assert.False(t, abstract.Collectable())
}

func TestNormalizeLocale(t *testing.T) {
	assert.Equal(t, "en", NormalizeLocale("en-US"))
	assert.Equal(t, "de", NormalizeLocale("DE"))
	assert.Equal(t, "en", NormalizeLocale("definitely not a locale"))
}

func TestIsCollectableWordCachesVerdict(t *testing.T) {
	calls := 0
	words := NewWordService(newTestDB(t), fakeOracle(t, "(yes,yes,no,no,no,en,kitchen", &calls))

	ok, err := words.IsCollectableWord("en", "Teapot")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, calls)

	// Case and whitespace variants hit the same cache row.
	ok, err = words.IsCollectableWord("en-US", "  teapot ")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, calls)
}

func TestIsCollectableWordOracleFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	oracle := &OracleClient{BaseURL: server.URL, Model: "test-model", HTTPClient: server.Client()}
	words := NewWordService(newTestDB(t), oracle)

	ok, word, err := words.IsCollectableWordExplanation("en", "teapot")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NotNil(t, word)
}

func TestIsCollectableWordUnparseable(t *testing.T) {
	calls := 0
	words := NewWordService(newTestDB(t), fakeOracle(t, "I cannot answer that.", &calls))

	ok, err := words.IsCollectableWord("en", "gibberish")
	require.NoError(t, err)
	assert.False(t, ok)
}
