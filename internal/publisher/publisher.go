// Package publisher runs the end to end publishing pipeline: decide
// whether today is an execution day, generate an article, push it as
// a draft and record the outcome.
package publisher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/draftpress/draftpress/internal/content"
	"github.com/draftpress/draftpress/internal/perplexity"
	"github.com/draftpress/draftpress/internal/schedule"
	"github.com/draftpress/draftpress/internal/store"
	"github.com/draftpress/draftpress/internal/wechat"
)

// Cost charged per million tokens, in dollars.
const costPerMillionTokens = 1.0

// Storage is the slice of the store the pipeline reads and writes.
type Storage interface {
	Settings(ctx context.Context) (store.Settings, string, error)
	Topics(ctx context.Context) (store.TopicsConfig, string, error)
	History(ctx context.Context) (store.History, string, error)
	SaveHistory(ctx context.Context, history store.History, sha string) (string, error)
}

// Generator produces article content from a prompt.
type Generator interface {
	Search(ctx context.Context, prompt string) (perplexity.Response, error)
}

// Drafts pushes finished articles to the official account.
type Drafts interface {
	RehostImages(ctx context.Context, html string) string
	CreateDraft(ctx context.Context, articles []wechat.Article) (string, error)
}

// Pipeline wires storage, generation and draft publishing together.
type Pipeline struct {
	storage   Storage
	generator Generator
	drafts    Drafts

	now func() time.Time
}

// New builds a Pipeline.
func New(storage Storage, generator Generator, drafts Drafts) *Pipeline {
	return &Pipeline{
		storage:   storage,
		generator: generator,
		drafts:    drafts,
		now:       time.Now,
	}
}

// Run executes one pipeline pass. Skipped days and topicless runs
// return nil; only infrastructure failures are errors.
func (p *Pipeline) Run(ctx context.Context) error {
	settings, _, err := p.storage.Settings(ctx)
	if err != nil {
		return fmt.Errorf("publisher: load settings: %w", err)
	}
	history, historySHA, err := p.storage.History(ctx)
	if err != nil {
		return fmt.Errorf("publisher: load history: %w", err)
	}

	now := p.now().UTC()
	if !p.shouldRun(settings.Schedule, history, now) {
		log.Info().
			Str("mode", string(settings.Schedule.Mode)).
			Str("lastExecution", history.LastExecutionTime).
			Msg("not an execution day, skipping")
		return nil
	}

	topics, _, err := p.storage.Topics(ctx)
	if err != nil {
		return fmt.Errorf("publisher: load topics: %w", err)
	}
	enabled := enabledTopics(topics.Topics)
	if len(enabled) == 0 {
		log.Warn().Msg("no enabled topics, skipping")
		return nil
	}

	prompt := BuildPrompt(enabled, settings.Content)
	log.Info().Int("topics", len(enabled)).Msg("generating article")

	resp, err := p.generator.Search(ctx, prompt)
	if err != nil {
		return fmt.Errorf("publisher: generate: %w", err)
	}

	article := p.buildArticle(resp, now)
	p.push(ctx, &article)

	history.Articles = append([]store.Article{article}, history.Articles...)
	history.Usage.TotalTokens += resp.Usage.TotalTokens
	history.Usage.TotalCost += float64(resp.Usage.TotalTokens) / 1_000_000 * costPerMillionTokens
	// Recorded on every attempt so interval spacing counts attempts,
	// not successes.
	history.LastExecutionTime = now.Format(time.RFC3339)

	if _, err := p.storage.SaveHistory(ctx, history, historySHA); err != nil {
		return fmt.Errorf("publisher: save history: %w", err)
	}

	log.Info().
		Str("article", article.ID).
		Str("status", article.Status).
		Int("tokens", resp.Usage.TotalTokens).
		Msg("pipeline finished")
	return nil
}

func (p *Pipeline) shouldRun(cfg schedule.Config, history store.History, nowUTC time.Time) bool {
	offset := time.Duration(schedule.OffsetHours(cfg.Location())) * time.Hour
	localToday := nowUTC.Add(offset)

	lastExecution := history.LastExecution()
	if lastExecution == nil && history.LastExecutionTime != "" {
		log.Warn().Str("lastExecutionTime", history.LastExecutionTime).Msg("unparseable last execution time, ignoring")
	}
	return schedule.IsExecutionDay(localToday, cfg, lastExecution)
}

func (p *Pipeline) buildArticle(resp perplexity.Response, now time.Time) store.Article {
	title := content.ExtractTitle(resp.Content)
	digest := content.ExtractDigest(resp.Content)
	html := content.Sanitize(content.ToHTML(resp.Content))

	return store.Article{
		ID:          uuid.NewString(),
		Title:       title,
		Content:     resp.Content,
		HTMLContent: html,
		Digest:      digest,
		Citations:   resp.Citations,
		Status:      store.StatusGenerated,
		TokensUsed:  resp.Usage.TotalTokens,
		CreatedAt:   now,
	}
}

// push uploads the article as a draft. Failures are recorded on the
// article rather than failing the run, so the generation is never
// lost.
func (p *Pipeline) push(ctx context.Context, article *store.Article) {
	html := p.drafts.RehostImages(ctx, article.HTMLContent)
	article.HTMLContent = html

	mediaID, err := p.drafts.CreateDraft(ctx, []wechat.Article{{
		Title:   article.Title,
		Content: html,
		Digest:  article.Digest,
	}})
	if err != nil {
		log.Error().Err(err).Str("article", article.ID).Msg("draft push failed")
		article.Status = store.StatusFailed
		article.Error = err.Error()
		return
	}

	pushedAt := p.now().UTC()
	article.Status = store.StatusPushed
	article.MediaID = mediaID
	article.PushedAt = &pushedAt
}

func enabledTopics(topics []store.Topic) []store.Topic {
	var out []store.Topic
	for _, t := range topics {
		if t.Enabled {
			out = append(out, t)
		}
	}
	return out
}

// BuildPrompt renders the generation prompt from the enabled topics
// and content settings.
func BuildPrompt(topics []store.Topic, cs store.ContentSettings) string {
	names := make([]string, 0, len(topics))
	var keywords []string
	for _, t := range topics {
		names = append(names, t.Name)
		if t.Keywords != "" {
			keywords = append(keywords, t.Keywords)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "请围绕以下主题撰写一篇深度资讯文章:%s。\n", strings.Join(names, "、"))
	if len(keywords) > 0 {
		fmt.Fprintf(&b, "重点关注:%s。\n", strings.Join(keywords, "、"))
	}
	fmt.Fprintf(&b, "要求:\n")
	fmt.Fprintf(&b, "1. 使用%s撰写,语言流畅,适合公众号读者。\n", languageName(cs.Language))
	fmt.Fprintf(&b, "2. 正文长度在%d到%d字之间。\n", cs.MinLength, cs.MaxLength)
	b.WriteString("3. 以 Markdown 格式输出,第一行为 # 开头的标题。\n")
	b.WriteString("4. 内容基于最新的真实信息,并在适当处引用来源。\n")
	return b.String()
}

func languageName(code string) string {
	switch code {
	case "", "zh-CN":
		return "简体中文"
	case "zh-TW":
		return "繁体中文"
	case "en-US", "en":
		return "英文"
	default:
		return code
	}
}
