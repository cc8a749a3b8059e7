package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/config"
)

var _ = Describe("Config", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())

		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("NewDefaultConfig", func() {
		It("populates every section", func() {
			d := config.NewDefaultConfig()
			Expect(d.API.Listen).To(Equal(":8080"))
			Expect(d.Storage.Provider).To(Equal("sqlite"))
			Expect(d.Cache.Provider).To(Equal("memory"))
			Expect(d.VectorStore.Provider).To(Equal("sqlite"))
			Expect(d.Embedding.Dimensions).To(Equal(uint(768)))
			Expect(d.Conversation.ActiveWindow).To(Equal(uint(10)))
			Expect(d.Conversation.ContextTTL).To(Equal("1h"))
			Expect(d.Conversation.StateTTL).To(Equal("168h"))
			Expect(d.RAG.TopK).To(Equal(uint(5)))
			Expect(d.RAG.EmbeddingTTL).To(Equal("24h"))
			Expect(d.Deletion.BackendTimeout).To(Equal("30s"))
			Expect(d.Events.Provider).To(Equal("nop"))
			Expect(d.Ingest.Workers).To(Equal(uint(3)))
		})
	})

	Describe("ParseConfigTOML", func() {
		It("parses section values", func() {
			cfg, err := config.ParseConfigTOML([]byte(`
[api]
listen = ":9090"

[cache]
provider = "redis"
redis_url = "redis://localhost:6379/0"

[conversation]
active_window = 20
context_ttl = "2h"
`))
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.API.Listen).To(Equal(":9090"))
			Expect(cfg.Cache.Provider).To(Equal("redis"))
			Expect(cfg.Cache.RedisURL).To(Equal("redis://localhost:6379/0"))
			Expect(cfg.Conversation.ActiveWindow).To(Equal(uint(20)))
			Expect(cfg.Conversation.ContextTTL).To(Equal("2h"))
		})

		It("rejects unsupported versions", func() {
			_, err := config.ParseConfigTOML([]byte("version = 99"))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported config version"))
		})

		It("rejects malformed TOML", func() {
			_, err := config.ParseConfigTOML([]byte("[[[nope"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Configer", func() {
		It("loads defaults when no config file exists", func() {
			cfger, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := cfger.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.API.Listen).To(Equal(":8080"))
		})

		It("round-trips save and load", func() {
			cfger, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.API.Listen = ":7070"
			cfg.Cache.Provider = "redis"
			Expect(cfger.SaveConfig(cfg)).To(Succeed())

			loaded, err := cfger.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.API.Listen).To(Equal(":7070"))
			Expect(loaded.Cache.Provider).To(Equal("redis"))
		})

		It("fills zero-value fields from defaults on load", func() {
			path := filepath.Join(tmpDir, "config.toml")
			Expect(os.WriteFile(path, []byte("[api]\nlisten = \":7070\"\n"), 0o600)).To(Succeed())

			cfger, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := cfger.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.API.Listen).To(Equal(":7070"))
			Expect(cfg.Embedding.Model).To(Equal("nomic-embed-text"))
			Expect(cfg.Conversation.ActiveWindow).To(Equal(uint(10)))
		})

		Describe("SetConfigValue and GetConfigValue", func() {
			var cfger *config.Configer

			BeforeEach(func() {
				var err error
				cfger, err = config.NewConfiger(tmpDir)
				Expect(err).NotTo(HaveOccurred())
			})

			It("sets and gets string keys", func() {
				Expect(cfger.SetConfigValue("cache.redis_url", "redis://cache:6379")).To(Succeed())

				got, err := cfger.GetConfigValue("cache.redis_url")
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal("redis://cache:6379"))
			})

			It("sets and gets numeric keys", func() {
				Expect(cfger.SetConfigValue("rag.top_k", "8")).To(Succeed())

				got, err := cfger.GetConfigValue("rag.top_k")
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal("8"))
			})

			It("rejects non-numeric values for numeric keys", func() {
				Expect(cfger.SetConfigValue("conversation.active_window", "many")).NotTo(Succeed())
			})

			It("validates duration keys", func() {
				Expect(cfger.SetConfigValue("conversation.context_ttl", "90m")).To(Succeed())
				Expect(cfger.SetConfigValue("conversation.context_ttl", "soon")).NotTo(Succeed())
			})

			It("rejects unknown keys", func() {
				Expect(cfger.SetConfigValue("nope.nope", "x")).NotTo(Succeed())
				_, err := cfger.GetConfigValue("nope.nope")
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("ValidConfigKeys", func() {
		It("covers every supported key exactly once", func() {
			keys := config.ValidConfigKeys()
			seen := make(map[string]bool, len(keys))
			for _, k := range keys {
				Expect(config.IsValidConfigKey(k)).To(BeTrue(), k)
				Expect(seen[k]).To(BeFalse(), k)
				seen[k] = true
			}
			Expect(keys).To(ContainElements(
				"conversation.active_window",
				"rag.top_k",
				"deletion.backend_timeout",
				"events.provider",
			))
		})
	})

	Describe("Duration", func() {
		It("parses valid durations and falls back otherwise", func() {
			Expect(config.Duration("90m", time.Hour)).To(Equal(90 * time.Minute))
			Expect(config.Duration("", time.Hour)).To(Equal(time.Hour))
			Expect(config.Duration("bogus", time.Hour)).To(Equal(time.Hour))
		})
	})

	Describe("InitViper", func() {
		It("applies defaults and environment overrides", func() {
			Expect(os.Setenv("VEA_API_LISTEN", ":6060")).To(Succeed())
			DeferCleanup(func() { os.Unsetenv("VEA_API_LISTEN") })

			v, err := config.InitViper(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(v.GetString("api.listen")).To(Equal(":6060"))
			Expect(v.GetString("embedding.model")).To(Equal("nomic-embed-text"))
			Expect(v.GetUint("rag.top_k")).To(Equal(uint(5)))
		})

		It("reads values from config.toml", func() {
			path := filepath.Join(tmpDir, "config.toml")
			Expect(os.WriteFile(path, []byte("[events]\nprovider = \"kafka\"\ntopic = \"veaconnect\"\n"), 0o600)).To(Succeed())

			v, err := config.InitViper(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.GetString("events.provider")).To(Equal("kafka"))
			Expect(v.GetString("events.topic")).To(Equal("veaconnect"))
		})
	})
})
