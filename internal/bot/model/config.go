package model

// ================ Config ================

type ChatModelConfig struct {
	Model       string  `envconfig:"CHAT_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"CHAT_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"CHAT_TEMPERATURE" default:"0.9"`
	// TimeoutSec bounds one model invocation end to end.
	TimeoutSec int `envconfig:"CHAT_TIMEOUT_SEC" default:"60"`
}

type ConversationConfig struct {
	// Backend selects the history store implementation: memory or redis.
	Backend string `envconfig:"HISTORY_BACKEND" default:"memory"`
	TTL     string `envconfig:"CONVERSATION_TTL" default:"15m"`
	// MaxTurns caps how many stored turns are replayed into the prompt.
	// The store itself keeps the full log; 0 disables the cap.
	MaxTurns int `envconfig:"CONVERSATION_MAX_TURNS" default:"20"`
}

type PromptConfig struct {
	SimplePersona  string `envconfig:"PROMPT_SIMPLE_PERSONA" default:"You are a scholar of modern history."`
	HistoryPersona string `envconfig:"PROMPT_HISTORY_PERSONA" default:"You remember the entire history of this conversation with the user."`
	BotName        string `envconfig:"PROMPT_BOT_NAME" default:"Bot"`
}

type RAGConfig struct {
	SourceURL    string  `envconfig:"RAG_SOURCE_URL" default:"https://api.ncloud-docs.com/docs/common-ncpapi"`
	ChunkSize    int     `envconfig:"RAG_CHUNK_SIZE" default:"1000"`
	ChunkOverlap int     `envconfig:"RAG_CHUNK_OVERLAP" default:"200"`
	TopK         int     `envconfig:"RAG_TOP_K" default:"4"`
	EmbedModel   string  `envconfig:"RAG_EMBED_MODEL" default:"gemini-embedding-001"`
	Temperature  float32 `envconfig:"RAG_TEMPERATURE" default:"0.2"`
}

type SearchConfig struct {
	APIKey     string `envconfig:"TAVILY_API_KEY"`
	BaseURL    string `envconfig:"TAVILY_BASE_URL" default:"https://api.tavily.com"`
	MaxResults int    `envconfig:"SEARCH_MAX_RESULTS" default:"5"`
	TimeoutSec int    `envconfig:"SEARCH_TIMEOUT_SEC" default:"15"`
}
