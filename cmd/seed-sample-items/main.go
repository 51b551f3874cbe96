package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"github.com/shinyyama/furnimarket-backend/internal/ai"
	"github.com/shinyyama/furnimarket-backend/internal/config"
	"github.com/shinyyama/furnimarket-backend/internal/db"
	"github.com/shinyyama/furnimarket-backend/internal/logger"
	"github.com/shinyyama/furnimarket-backend/internal/model"
	"github.com/shinyyama/furnimarket-backend/internal/repository"
)

type seedConfig struct {
	Dir         string `env:"SEED_DIR" envDefault:"../front/public/sample-items"`
	URLPrefix   string `env:"SEED_URL_PREFIX" envDefault:"/sample-items/"`
	OwnerID     string `env:"SEED_OWNER_ID" envDefault:"seed-owner"`
	WhatsApp    string `env:"SEED_WHATSAPP" envDefault:"+5511900000000"`
	BasePrice   int64  `env:"SEED_BASE_PRICE" envDefault:"20000"`
	Describe    bool   `env:"SEED_DESCRIBE" envDefault:"false"`
	GeminiKey   string `env:"GEMINI_API_KEY"`
	GeminiModel string `env:"GEMINI_CAPTION_MODEL" envDefault:"gemini-2.5-flash"`
}

var imageExts = []string{".webp", ".jpg", ".jpeg", ".png"}

func main() {
	if err := run(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("seed_failed")
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	var sc seedConfig
	if err := env.Parse(&sc); err != nil {
		return fmt.Errorf("parse seed env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init("furnimarket-seed", cfg.LogLevel, cfg.LogPretty)
	log := &logger.Logger

	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("sql db: %w", err)
	}
	defer sqlDB.Close()
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var captioner *ai.CaptionClient
	if sc.Describe && sc.GeminiKey != "" {
		if captioner, err = ai.NewCaptionClient(ctx, sc.GeminiKey, sc.GeminiModel); err != nil {
			return fmt.Errorf("caption client: %w", err)
		}
	}

	res, err := seedDir(ctx, repository.NewItemRepository(gdb), sc, captioner)
	if err != nil {
		return err
	}
	log.Info().
		Int("inserted", res.inserted).
		Int("skipped", res.skipped).
		Int("invalid", res.invalid).
		Int("total", res.total).
		Msg("seed_complete")
	return nil
}

type seedResult struct {
	inserted, skipped, invalid, total int
}

// seedDir lists every image in sc.Dir that is not listed yet. Files that do
// not make a valid listing are reported and skipped.
func seedDir(ctx context.Context, items repository.ItemRepository, sc seedConfig, captioner *ai.CaptionClient) (seedResult, error) {
	log := &logger.Logger
	var res seedResult

	paths, err := findImages(sc.Dir)
	if err != nil {
		return res, err
	}
	res.total = len(paths)
	if len(paths) == 0 {
		log.Warn().Str("dir", sc.Dir).Msg("no_sample_items")
		return res, nil
	}

	for idx, p := range paths {
		filename := filepath.Base(p)
		image := sc.URLPrefix + filename

		existing, err := items.FindByImage(ctx, image)
		if err != nil {
			return res, fmt.Errorf("check existing %s: %w", filename, err)
		}
		if existing != nil {
			res.skipped++
			continue
		}

		in := model.NewItem{
			Title:    toTitle(strings.TrimSuffix(filename, filepath.Ext(filename))),
			Price:    priceFor(sc.BasePrice, idx),
			Image:    image,
			WhatsApp: sc.WhatsApp,
			OwnerID:  sc.OwnerID,
		}
		if err := repository.ValidateNewItem(in); err != nil {
			log.Warn().Err(err).Str("file", filename).Msg("seed_item_invalid")
			res.invalid++
			continue
		}
		if captioner != nil {
			in.Description = describeFile(ctx, captioner, p, in.Title)
		}

		item, err := items.Create(ctx, in)
		if err != nil {
			return res, fmt.Errorf("insert %s: %w", filename, err)
		}
		log.Debug().Uint64("item", item.ID).Str("image", image).Msg("seed_item_inserted")
		res.inserted++
	}
	return res, nil
}

// describeFile returns "" when captioning fails; seeding continues without a
// description.
func describeFile(ctx context.Context, c *ai.CaptionClient, path, title string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Logger.Warn().Err(err).Str("path", path).Msg("seed_read_failed")
		return ""
	}
	text, err := c.Describe(ctx, data, http.DetectContentType(data), title)
	if err != nil {
		logger.Logger.Warn().Err(err).Str("path", path).Msg("seed_caption_failed")
		return ""
	}
	return text
}

func findImages(dir string) ([]string, error) {
	var paths []string
	for _, ext := range imageExts {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil {
			return nil, fmt.Errorf("glob sample items: %w", err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)
	return paths, nil
}

// priceFor spreads prices over a small range in minor units.
func priceFor(base int64, idx int) int64 {
	return base + int64(idx*5000)%50000
}

func toTitle(base string) string {
	normalized := strings.NewReplacer("-", " ", "_", " ").Replace(base)
	parts := strings.Fields(normalized)
	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	for i := 1; i < len(runes); i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
