// Command chatcli is an interactive terminal client that talks to a company
// assistant without the web server. Context and sessions are kept in memory.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"tenantchat/internal/capabilities"
	"tenantchat/internal/company"
	"tenantchat/internal/config"
	"tenantchat/internal/domain/models"
	"tenantchat/internal/domain/services"
	"tenantchat/internal/service/chat"
	serviceLLM "tenantchat/internal/service/llm"
	"tenantchat/internal/service/llm/adapters"
	"tenantchat/internal/session"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

type CLI struct {
	ctx      context.Context
	preparer services.ContextPreparer
	executor services.QueryExecutor
	scanner  *bufio.Scanner
	company  string
	user     string
	model    string
	logger   *slog.Logger
}

// setupLogger writes INFO to the console and DEBUG to a timestamped file.
func setupLogger() (*slog.Logger, string, error) {
	logsDir := "logs"
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create logs directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logFilename := filepath.Join(logsDir, fmt.Sprintf("chatcli_%s.log", timestamp))
	logFile, err := os.Create(logFilename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create log file: %w", err)
	}

	consoleHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
	fileHandler := slog.NewTextHandler(logFile, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if src, ok := a.Value.Any().(*slog.Source); ok {
					return slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
				}
			}
			return a
		},
	})

	return slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}}), logFilename, nil
}

// multiHandler writes to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// memoryCompanies stands in for the companies table.
type memoryCompanies struct {
	mu     sync.Mutex
	byName map[string]*models.Company
}

func (m *memoryCompanies) GetByShortName(ctx context.Context, shortName string) (*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byName[shortName], nil
}

func (m *memoryCompanies) GetByID(ctx context.Context, id int64) (*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byName {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (m *memoryCompanies) Upsert(ctx context.Context, company *models.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.byName[company.ShortName]; ok {
		existing.Name = company.Name
		*company = *existing
		return nil
	}
	company.ID = int64(len(m.byName) + 1)
	company.CreatedAt = time.Now()
	company.UpdatedAt = company.CreatedAt
	stored := *company
	m.byName[company.ShortName] = &stored
	return nil
}

func main() {
	companyFlag := flag.String("company", "", "Company short name")
	userFlag := flag.String("user", "cli-user", "User identifier to chat as")
	modelFlag := flag.String("model", "", "Model override (e.g. lorem-fast, gpt-4o-mini)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	logger, logFile, err := setupLogger()
	if err != nil {
		fmt.Printf("%sFailed to setup logger: %v%s\n", colorRed, err, colorReset)
		os.Exit(1)
	}
	logger.Info("session started", "log_file", logFile)

	ctx := context.Background()

	configs, err := company.LoadConfigs(cfg.CompaniesDir)
	if err != nil {
		fail("Failed to load companies: %v", err)
	}
	if *companyFlag == "" {
		if len(configs) != 1 {
			fail("-company is required when %d companies are configured", len(configs))
		}
		*companyFlag = configs[0].ShortName
	}

	directory := company.NewDirectory(&memoryCompanies{byName: make(map[string]*models.Company)}, configs, logger)
	if err := directory.Sync(ctx); err != nil {
		fail("Failed to register companies: %v", err)
	}

	buildOpts := company.BuildOptions{Logger: logger}
	if cfg.QdrantHost != "" && cfg.OpenAIAPIKey != "" {
		qdrantClient, err := company.NewQdrantClient(cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantAPIKey, cfg.QdrantUseTLS)
		if err != nil {
			fail("Failed to create qdrant client: %v", err)
		}
		defer qdrantClient.Close()
		buildOpts.Points = qdrantClient
		buildOpts.Embedder = adapters.NewOpenAIEmbedder(adapters.NewOpenAIClient(cfg.OpenAIAPIKey, ""), cfg.EmbeddingModel)
	}
	dispatcher, closers := company.Build(ctx, configs, buildOpts)
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	caps, err := capabilities.NewRegistry()
	if err != nil {
		fail("Failed to load capabilities: %v", err)
	}
	providers, err := serviceLLM.SetupProviders(cfg, caps, nil, logger)
	if err != nil {
		fail("Failed to setup providers: %v", err)
	}

	store, err := session.NewContextStore(session.StoreTypeMemory)
	if err != nil {
		fail("Failed to create context store: %v", err)
	}

	cli := &CLI{
		ctx:      ctx,
		preparer: chat.NewContextPreparer(directory, dispatcher, store, providers, cfg.DefaultModel, logger),
		executor: chat.NewQueryExecutor(directory, dispatcher, store, providers, cfg.DefaultModel, logger),
		scanner:  bufio.NewScanner(os.Stdin),
		company:  *companyFlag,
		user:     *userFlag,
		model:    *modelFlag,
		logger:   logger,
	}
	cli.run()
}

func (c *CLI) run() {
	fmt.Printf("%sPreparing %s for %s...%s\n", colorCyan, c.company, c.user, colorReset)
	if err := c.initContext(); err != nil {
		fail("Failed to initialize context: %v", err)
	}
	c.printHelp()

	for {
		fmt.Printf("%s> %s", colorGreen, colorReset)
		if !c.scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(c.scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit" || line == "/exit":
			return
		case line == "/help":
			c.printHelp()
		case line == "/reset":
			if err := c.initContext(); err != nil {
				c.printError(err)
			}
		case strings.HasPrefix(line, "/model "):
			c.model = strings.TrimSpace(strings.TrimPrefix(line, "/model "))
			fmt.Printf("%sModel set to %s (takes effect on /reset)%s\n", colorYellow, c.model, colorReset)
		case strings.HasPrefix(line, "/prompt "):
			name, data := parsePromptLine(strings.TrimPrefix(line, "/prompt "))
			c.ask(&models.QueryRequest{PromptName: name, ClientData: data})
		default:
			c.ask(&models.QueryRequest{Question: line})
		}
	}
}

func (c *CLI) initContext() error {
	result, err := c.preparer.InitContext(c.ctx, c.company, c.user, c.model)
	if err != nil {
		return err
	}
	c.logger.Info("context initialized", "company", c.company, "user", c.user, "response_id", result.ResponseHandle)
	fmt.Printf("%sContext ready.%s\n", colorCyan, colorReset)
	return nil
}

func (c *CLI) ask(req *models.QueryRequest) {
	req.CompanyShortName = c.company
	req.ExternalUserID = c.user
	req.Model = c.model

	start := time.Now()
	result, err := c.executor.LLMQuery(c.ctx, req)
	if err != nil {
		c.printError(err)
		return
	}
	if !result.Valid {
		fmt.Printf("%s[%s] %s%s\n", colorYellow, result.ErrorKind, result.ErrorMessage, colorReset)
		return
	}

	fmt.Println(result.Answer)
	if len(result.AdditionalData) > 0 {
		fmt.Printf("%sadditional data: %v%s\n", colorCyan, result.AdditionalData, colorReset)
	}
	c.logger.Debug("turn complete", "duration", time.Since(start), "response_id", result.ResponseID)
}

func (c *CLI) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  <text>                    ask a question")
	fmt.Println("  /prompt <name> [k=v ...]  run a company prompt with extra data")
	fmt.Println("  /model <id>               change the model")
	fmt.Println("  /reset                    rebuild the context")
	fmt.Println("  /quit                     exit")
}

func (c *CLI) printError(err error) {
	c.logger.Error("command failed", "error", err)
	fmt.Printf("%sError: %v%s\n", colorRed, err, colorReset)
}

// parsePromptLine splits "name k=v k2=v2" into the prompt name and its data.
func parsePromptLine(line string) (string, models.JSONMap) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	data := models.JSONMap{}
	for _, f := range fields[1:] {
		if k, v, ok := strings.Cut(f, "="); ok && k != "" {
			data[k] = v
		}
	}
	return fields[0], data
}

func fail(format string, args ...interface{}) {
	fmt.Printf(colorRed+format+colorReset+"\n", args...)
	os.Exit(1)
}
