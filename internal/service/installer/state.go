package installer

// Settings are the values the wizard collects. Values equal to their
// default are left out of the written .env file.
type Settings struct {
	OllamaBaseURL  string `env:"CODE_OLLAMA_BASE_URL" envDefault:"http://127.0.0.1:11434"`
	Model          string `env:"CODE_MODEL" envDefault:"llama3:8b"`
	DefaultPersona string `env:"CODE_DEFAULT_PERSONA" envDefault:"logician"`
}

type InstallState struct {
	Settings Settings
	// PullModel is set when the chosen model still has to be downloaded.
	PullModel bool
	EnvPath   string
	Force     bool
}

func NewInstallState(envPath string, force bool) *InstallState {
	return &InstallState{
		Settings: Settings{
			OllamaBaseURL:  "http://127.0.0.1:11434",
			Model:          "llama3:8b",
			DefaultPersona: "logician",
		},
		EnvPath: envPath,
		Force:   force,
	}
}
