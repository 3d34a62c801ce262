package config_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/naka-gawa/github-star-growth/internal/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

func envFrom(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

var _ = Describe("Load", func() {
	It("applies defaults when only the token is set", func() {
		cfg, err := config.Load(envFrom(map[string]string{"GITHUB_TOKEN": "abc123"}))

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Token).To(Equal("abc123"))
		Expect(cfg.ReferenceTimestamp).To(Equal("2019-01-01T00:00:00Z"))
		Expect(cfg.ReferenceTime).To(Equal(time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)))
		Expect(cfg.Categories).To(HaveLen(25))
		Expect(cfg.Categories[0]).To(Equal("audio"))
		Expect(cfg.Categories[24]).To(Equal("websocket"))
		Expect(cfg.StarCeiling).To(BeZero())
		Expect(cfg.SearchAPI).To(Equal("rest"))
		Expect(cfg.RetryDelay).To(Equal(3 * time.Second))
		Expect(cfg.SearchAttempts).To(BeZero())
		Expect(cfg.EstimateAttempts).To(Equal(3))
		Expect(cfg.Concurrency).To(Equal(1))
		Expect(cfg.UserAgent).To(Equal("script"))
		Expect(cfg.OutputDir).To(Equal("."))
		Expect(cfg.PostgresDSN).To(BeEmpty())
		Expect(cfg.Debug).To(BeFalse())
	})

	It("reads every override", func() {
		cfg, err := config.Load(envFrom(map[string]string{
			"GITHUB_TOKEN":                 "abc123",
			"STARGROWTH_REFERENCE_TIME":    "2020-06-01T12:00:00Z",
			"STARGROWTH_STAR_CEILING":      "39990",
			"STARGROWTH_CATEGORIES":        "cache, orm ,queue",
			"STARGROWTH_OUTPUT_DIR":        "out",
			"STARGROWTH_SEARCH_API":        "graphql",
			"STARGROWTH_PER_PAGE":          "100",
			"STARGROWTH_RETRY_DELAY":       "500ms",
			"STARGROWTH_SEARCH_ATTEMPTS":   "10",
			"STARGROWTH_ESTIMATE_ATTEMPTS": "1",
			"STARGROWTH_CONCURRENCY":       "4",
			"STARGROWTH_USER_AGENT":        "star-growth",
			"STARGROWTH_POSTGRES_DSN":      "postgres://localhost/stars",
			"STARGROWTH_DEBUG":             "true",
		}))

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.ReferenceTime).To(Equal(time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)))
		Expect(cfg.StarCeiling).To(Equal(39990))
		Expect(cfg.Categories).To(Equal([]string{"cache", "orm", "queue"}))
		Expect(cfg.OutputDir).To(Equal("out"))
		Expect(cfg.SearchAPI).To(Equal("graphql"))
		Expect(cfg.PerPage).To(Equal(100))
		Expect(cfg.RetryDelay).To(Equal(500 * time.Millisecond))
		Expect(cfg.SearchAttempts).To(Equal(10))
		Expect(cfg.EstimateAttempts).To(Equal(1))
		Expect(cfg.Concurrency).To(Equal(4))
		Expect(cfg.UserAgent).To(Equal("star-growth"))
		Expect(cfg.PostgresDSN).To(Equal("postgres://localhost/stars"))
		Expect(cfg.Debug).To(BeTrue())
	})

	It("does not share the default category list", func() {
		cfg, err := config.Load(envFrom(map[string]string{"GITHUB_TOKEN": "t"}))
		Expect(err).NotTo(HaveOccurred())

		cfg.Categories[0] = "changed"
		Expect(config.DefaultCategories[0]).To(Equal("audio"))
	})

	DescribeTable("rejects misconfiguration",
		func(env map[string]string, message string) {
			_, err := config.Load(envFrom(env))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring(message))
		},
		Entry("missing token", map[string]string{}, "GITHUB_TOKEN"),
		Entry("bad timestamp", map[string]string{"GITHUB_TOKEN": "t", "STARGROWTH_REFERENCE_TIME": "2019-01-01"}, "STARGROWTH_REFERENCE_TIME"),
		Entry("non-numeric ceiling", map[string]string{"GITHUB_TOKEN": "t", "STARGROWTH_STAR_CEILING": "lots"}, "STARGROWTH_STAR_CEILING"),
		Entry("negative ceiling", map[string]string{"GITHUB_TOKEN": "t", "STARGROWTH_STAR_CEILING": "-1"}, "STARGROWTH_STAR_CEILING"),
		Entry("blank category", map[string]string{"GITHUB_TOKEN": "t", "STARGROWTH_CATEGORIES": "cache,,orm"}, "empty categories"),
		Entry("duplicate category", map[string]string{"GITHUB_TOKEN": "t", "STARGROWTH_CATEGORIES": "cache,orm,cache"}, `"cache" is listed twice`),
		Entry("unknown search API", map[string]string{"GITHUB_TOKEN": "t", "STARGROWTH_SEARCH_API": "soap"}, "STARGROWTH_SEARCH_API"),
		Entry("page too large", map[string]string{"GITHUB_TOKEN": "t", "STARGROWTH_PER_PAGE": "101"}, "STARGROWTH_PER_PAGE"),
		Entry("bad retry delay", map[string]string{"GITHUB_TOKEN": "t", "STARGROWTH_RETRY_DELAY": "soon"}, "STARGROWTH_RETRY_DELAY"),
		Entry("zero retry delay", map[string]string{"GITHUB_TOKEN": "t", "STARGROWTH_RETRY_DELAY": "0s"}, "STARGROWTH_RETRY_DELAY"),
		Entry("negative search attempts", map[string]string{"GITHUB_TOKEN": "t", "STARGROWTH_SEARCH_ATTEMPTS": "-2"}, "STARGROWTH_SEARCH_ATTEMPTS"),
		Entry("zero estimate attempts", map[string]string{"GITHUB_TOKEN": "t", "STARGROWTH_ESTIMATE_ATTEMPTS": "0"}, "STARGROWTH_ESTIMATE_ATTEMPTS"),
		Entry("zero concurrency", map[string]string{"GITHUB_TOKEN": "t", "STARGROWTH_CONCURRENCY": "0"}, "STARGROWTH_CONCURRENCY"),
	)
})

var _ = Describe("Validate", func() {
	It("rejects an empty category list", func() {
		cfg := config.Config{
			Token:              "t",
			ReferenceTimestamp: config.DefaultReferenceTimestamp,
			SearchAPI:          "rest",
			RetryDelay:         time.Second,
			EstimateAttempts:   1,
			Concurrency:        1,
		}
		err := cfg.Validate()
		Expect(err).To(MatchError(ContainSubstring("at least one category")))
	})

	It("passes a complete configuration", func() {
		cfg := config.Config{
			Token:              "t",
			ReferenceTimestamp: config.DefaultReferenceTimestamp,
			Categories:         []string{"cache"},
			SearchAPI:          "graphql",
			RetryDelay:         time.Second,
			EstimateAttempts:   1,
			Concurrency:        1,
		}
		Expect(cfg.Validate()).To(Succeed())
		Expect(cfg.ReferenceTime.Year()).To(Equal(2019))
	})
})
