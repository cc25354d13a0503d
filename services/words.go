package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"collect-the-world-backend/models"

	"golang.org/x/text/language"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OracleClient calls the natural-language classification service that judges
// whether an unrecognized label is a photographable real-world item.
type OracleClient struct {
	BaseURL    string
	Token      string
	Model      string
	HTTPClient *http.Client
}

func NewOracleClient() *OracleClient {
	baseURL := os.Getenv("ORACLE_BASE_URL")
	if baseURL == "" {
		log.Fatal("ORACLE_BASE_URL environment variable is required")
	}
	model := os.Getenv("ORACLE_MODEL")
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	return &OracleClient{
		BaseURL: baseURL,
		Token:   os.Getenv("ORACLE_API_KEY"),
		Model:   model,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type oracleMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oracleRequest struct {
	Model    string          `json:"model"`
	Messages []oracleMessage `json:"messages"`
	Stop     string          `json:"stop,omitempty"`
}

type oracleResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify asks the oracle about a phrase. A nil result means the response
// could not be parsed; the caller treats that as "not collectable".
func (c *OracleClient) Classify(locale, phrase string) (*models.Word, error) {
	prompt := fmt.Sprintf(`Answer these questions about %q with yes or no in the form of (yes,yes,yes,yes,yes,iso code,category)
Is it an object in the real world?
Can you photograph it?
Is it an abbreviation or unspecific?
Is it a name of a person,city or company?
Is it a product?
What language is it in as 2 digit code?
What category would fit it in?`, phrase)

	body, err := json.Marshal(oracleRequest{
		Model:    c.Model,
		Messages: []oracleMessage{{Role: "user", Content: prompt}},
		Stop:     ")",
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest("POST", c.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oracle call failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}
	var parsed oracleResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode oracle response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, nil
	}
	return parseVerdict(locale, phrase, parsed.Choices[0].Message.Content), nil
}

// parseVerdict decodes "(yes,yes,no,no,no,en,household" style answers.
// Anything that doesn't split into exactly 7 parts is unparseable.
func parseVerdict(locale, phrase, content string) *models.Word {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "(")
	content = strings.TrimSuffix(content, ")")
	split := strings.Split(content, ",")
	if len(split) != 7 {
		return nil
	}
	yes := func(i int) bool {
		return strings.EqualFold(strings.TrimSpace(split[i]), "yes")
	}
	return &models.Word{
		Locale:                locale,
		Phrase:                phrase,
		IsRealItem:            yes(0),
		CanMakePicture:        yes(1),
		IsAbbreviation:        yes(2),
		IsPersonCityOrCompany: yes(3),
		IsProduct:             yes(4),
		LocaleGuess:           strings.ToLower(strings.TrimSpace(split[5])),
		Category:              strings.TrimSpace(split[6]),
	}
}

// WordService answers "is this unrecognized label collectable" with a
// permanent per-(locale, phrase) cache in front of the oracle.
type WordService struct {
	DB     *gorm.DB
	Oracle *OracleClient
}

func NewWordService(db *gorm.DB, oracle *OracleClient) *WordService {
	return &WordService{DB: db, Oracle: oracle}
}

// NormalizeLocale collapses whatever the client sent ("en-US", "EN") into a
// base language tag the cache can key on.
func NormalizeLocale(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return "en"
	}
	base, _ := tag.Base()
	return base.String()
}

// IsCollectableWord returns the cached or freshly judged verdict. Oracle
// failure and unparseable output both come back as not collectable: the
// minimal reward is the safe default, and escalating would fail captures
// for a best-effort enrichment.
func (s *WordService) IsCollectableWord(locale, phrase string) (bool, error) {
	ok, _, err := s.IsCollectableWordExplanation(locale, phrase)
	return ok, err
}

func (s *WordService) IsCollectableWordExplanation(locale, phrase string) (bool, *models.Word, error) {
	locale = NormalizeLocale(locale)
	phrase = strings.ToLower(strings.TrimSpace(phrase))

	var existing models.Word
	err := s.DB.Where("locale = ? AND phrase = ?", locale, phrase).First(&existing).Error
	if err == nil {
		return existing.Collectable(), &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return false, nil, err
	}

	word, err := s.Oracle.Classify(locale, phrase)
	if err != nil {
		log.Printf("Oracle classification failed for %q: %v", phrase, err)
		return false, &models.Word{Locale: locale, Phrase: phrase}, nil
	}
	if word == nil {
		return false, &models.Word{Locale: locale, Phrase: phrase}, nil
	}
	word.Phrase = phrase
	if err := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(word).Error; err != nil {
		log.Printf("Failed to cache oracle verdict for %q: %v", phrase, err)
	}
	return word.Collectable(), word, nil
}
