package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
)

// speakerNames maps common German collective speaker labels. Proper
// names pass through untouched.
var speakerNames = map[string]string{
	"CHOR":     "CHORUS",
	"ALLE":     "ALL",
	"STIMME":   "VOICE",
	"SPRECHER": "NARRATOR",
}

// OpenAILLM implements the LLM interface against OpenAI-compatible chat
// completion APIs
type OpenAILLM struct {
	name       string
	config     types.LLMProviderConfig
	httpClient *http.Client
	log        *logrus.Entry
}

// NewOpenAILLM creates a new OpenAI-compatible LLM provider
func NewOpenAILLM(config types.LLMProviderConfig) (*OpenAILLM, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required for OpenAI LLM provider")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required for OpenAI LLM provider")
	}

	timeout := 60 * time.Second
	if timeoutStr, ok := config.Options["timeout"]; ok {
		var timeoutSec int
		if _, err := fmt.Sscanf(timeoutStr, "%d", &timeoutSec); err == nil && timeoutSec > 0 {
			timeout = time.Duration(timeoutSec) * time.Second
		}
	}

	return &OpenAILLM{
		name:   config.Name,
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: logrus.WithField("llm", config.Name),
	}, nil
}

func (o *OpenAILLM) Name() string {
	return o.name
}

// Translate produces a structured English translation of one German
// page. The response must mirror the source layout one-to-one; a
// mismatched paragraph or sentence count is rejected as a provider
// error rather than displayed misaligned.
func (o *OpenAILLM) Translate(ctx context.Context, req TranslateRequest) (*types.TranslationResult, error) {
	if req.Page == nil {
		return nil, fmt.Errorf("translate request without page")
	}

	system := buildTranslationSystemPrompt()
	user := buildTranslationUserPrompt(req)

	raw, err := o.callChatCompletion(ctx, system, user, true)
	if err != nil {
		return nil, fmt.Errorf("translation request failed: %w: %v", ErrProvider, err)
	}

	translated, err := parseTranslationResponse(raw, req.Page)
	if err != nil {
		return nil, fmt.Errorf("translation response rejected: %w: %v", ErrProvider, err)
	}

	result := &types.TranslationResult{
		Provider: o.name,
		Page:     *translated,
	}

	// Metadata is translated only when provided (first page)
	if req.Metadata != nil {
		meta, err := o.translateMetadata(ctx, req.Metadata)
		if err != nil {
			o.log.Warnf("Metadata translation failed, passing original through: %v", err)
			meta = &types.TranslatedMetadata{
				Title:       req.Metadata.Title,
				Author:      req.Metadata.Author,
				Description: req.Metadata.Description,
				Genre:       req.Metadata.Genre,
			}
		}
		result.Metadata = meta
	}

	return result, nil
}

// Chat answers a reader question as a German language tutor
func (o *OpenAILLM) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	system := "You are a helpful German language tutor and literary expert. " +
		"You help students understand German texts, grammar, vocabulary, and cultural context. " +
		"Answer in English unless the student explicitly asks for German. " +
		"Be clear and educational, explain grammar concepts when relevant, and keep responses concise but informative."

	user := fmt.Sprintf("Question: %s", req.Question)
	if req.Context != "" {
		user += fmt.Sprintf("\n\nContext (German text): %s", req.Context)
	}

	answer, err := o.callChatCompletion(ctx, system, user, false)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w: %v", ErrProvider, err)
	}

	return &ChatResponse{Response: answer, Provider: o.name}, nil
}

// Lookup produces a dictionary entry for a German word or phrase. The
// definition uses simple emphasis markup (bold headers, bullet points)
// rendered verbatim by the result panel.
func (o *OpenAILLM) Lookup(ctx context.Context, req LookupRequest) (*LookupResponse, error) {
	system := "You are a German-English dictionary assistant. " +
		"Provide a comprehensive but concise dictionary entry: definition, part of speech, " +
		"gender and declension where applicable, etymology for compounds, common usage, " +
		"two or three example sentences with translations, and related words. " +
		"Format the entry with **bold** section headers and bullet points."

	user := fmt.Sprintf("Dictionary entry for the German word or phrase: %q", req.Word)
	if req.Context != "" {
		user += fmt.Sprintf("\n\nContext from the text: %q", req.Context)
	}

	definition, err := o.callChatCompletion(ctx, system, user, false)
	if err != nil {
		return nil, fmt.Errorf("dictionary lookup failed: %w: %v", ErrProvider, err)
	}

	return &LookupResponse{Word: req.Word, Definition: definition, Provider: o.name}, nil
}

func (o *OpenAILLM) Close() error {
	o.httpClient.CloseIdleConnections()
	return nil
}

// translateMetadata translates title and author; description and genre
// pass through for display
func (o *OpenAILLM) translateMetadata(ctx context.Context, meta *types.TextMetadata) (*types.TranslatedMetadata, error) {
	prompt := fmt.Sprintf(
		"Translate the following from German to English. Return only valid JSON of the form "+
			`{"title": "...", "author": "..."}. Title: %s Author: %s`,
		meta.Title, meta.Author)

	raw, err := o.callChatCompletion(ctx, "You translate short bibliographic fields.", prompt, true)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Title  string `json:"title"`
		Author string `json:"author"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse metadata translation: %w", err)
	}

	return &types.TranslatedMetadata{
		Title:       parsed.Title,
		Author:      parsed.Author,
		Description: meta.Description,
		Genre:       meta.Genre,
	}, nil
}

// buildTranslationSystemPrompt states the structural contract: every
// source sentence gets a fragments array, line breaks are preserved,
// paragraphs are never merged.
func buildTranslationSystemPrompt() string {
	return "You are translating German literature to English, sentence by sentence. " +
		"Translate every sentence of every paragraph, preserving the paragraph structure exactly. " +
		"A sentence's translation is an array of fragments: if the German text contains \\n line breaks " +
		"(poetry), the English must contain the same number of line fragments in the same positions. " +
		"Never merge sentences across paragraphs. Convert German quotation marks (»«) to English style. " +
		"Stage directions are translated concisely; speaker names are returned unchanged. " +
		"Return ONLY valid JSON of the form: " +
		`{"paragraphs": [{"id": 1, "sentences": [{"id": 1, "fragments": ["..."]}]}]}`
}

// buildTranslationUserPrompt lays out the page with stable identifiers
// plus book context for literary quality
func buildTranslationUserPrompt(req TranslateRequest) string {
	var b strings.Builder

	if req.Metadata != nil {
		b.WriteString("BOOK CONTEXT:\n")
		fmt.Fprintf(&b, "Title: %s\n", req.Metadata.Title)
		fmt.Fprintf(&b, "Author: %s\n", req.Metadata.Author)
		if req.Metadata.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", req.Metadata.Description)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("BOOK CONTEXT: German literary text\n\n")
	}

	b.WriteString("PAGE TO TRANSLATE:\n")
	for _, para := range req.Page.Paragraphs {
		fmt.Fprintf(&b, "Paragraph %d:\n", para.ID)
		for _, s := range para.Sentences {
			fmt.Fprintf(&b, "  [%d] (%s) %s\n", s.ID, s.Type, s.Text)
		}
	}

	return b.String()
}

// translationPayload is the JSON shape expected from the model
type translationPayload struct {
	Paragraphs []struct {
		ID        int `json:"id"`
		Sentences []struct {
			ID        int      `json:"id"`
			Fragments []string `json:"fragments"`
		} `json:"sentences"`
	} `json:"paragraphs"`
}

// parseTranslationResponse decodes the model output and verifies the
// one-to-one positional alignment against the source page. Sentence
// type and speaker are carried over from the source; speaker names use
// the local lookup table instead of the model output.
func parseTranslationResponse(raw string, source *types.Page) (*types.TranslatedPage, error) {
	var payload translationPayload
	if err := json.Unmarshal([]byte(extractJSON(raw)), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode translation JSON: %w", err)
	}

	if len(payload.Paragraphs) != len(source.Paragraphs) {
		return nil, fmt.Errorf("paragraph count mismatch: got %d, want %d",
			len(payload.Paragraphs), len(source.Paragraphs))
	}

	page := &types.TranslatedPage{Number: source.Number}
	for i, srcPara := range source.Paragraphs {
		got := payload.Paragraphs[i]
		if len(got.Sentences) != len(srcPara.Sentences) {
			return nil, fmt.Errorf("sentence count mismatch in paragraph %d: got %d, want %d",
				srcPara.ID, len(got.Sentences), len(srcPara.Sentences))
		}

		para := types.TranslatedParagraph{ID: srcPara.ID}
		for j, srcSent := range srcPara.Sentences {
			fragments := got.Sentences[j].Fragments
			if srcSent.Type == types.SentenceSpeakerName {
				fragments = []string{TranslateSpeakerName(srcSent.Text)}
			}
			if len(fragments) == 0 {
				fragments = []string{srcSent.Text} // fall back to the original
			}
			para.Sentences = append(para.Sentences, types.TranslatedSentence{
				ID:        srcSent.ID,
				Fragments: fragments,
				Type:      srcSent.Type,
				Speaker:   srcSent.Speaker,
			})
		}
		page.Paragraphs = append(page.Paragraphs, para)
	}

	return page, nil
}

// TranslateSpeakerName translates collective speaker labels; proper
// names are returned unchanged
func TranslateSpeakerName(name string) string {
	if translated, ok := speakerNames[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return translated
	}
	return name
}

// extractJSON strips markdown code fences some models wrap around JSON
func extractJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}
	return trimmed
}

// chatMessage is one message in the chat completion request
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionRequest is the OpenAI-compatible request body
type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatCompletionResponse is the OpenAI-compatible response body
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// callChatCompletion calls the chat completions endpoint and returns
// the first choice's content
func (o *OpenAILLM) callChatCompletion(ctx context.Context, system, user string, wantJSON bool) (string, error) {
	apiReq := chatCompletionRequest{
		Model: o.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.1,
	}
	if wantJSON {
		apiReq.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	jsonData, err := json.Marshal(apiReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := strings.TrimSuffix(o.config.Endpoint, "/") + "/chat/completions"

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.config.APIKey)
	}

	startTime := time.Now()
	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		o.log.Warnf("Request failed after %v: %v", time.Since(startTime), err)
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	o.log.Debugf("Response: %d (took %v)", resp.StatusCode, time.Since(startTime))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var apiResp chatCompletionResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if apiResp.Error != nil {
			return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, apiResp.Error.Message)
		}
		return "", fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("API returned no choices")
	}

	return apiResp.Choices[0].Message.Content, nil
}
