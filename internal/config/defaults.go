package config

// DefaultConfigYAML contains the default configuration YAML content.
// `srip init` writes it; every key mirrors a loader default.
const DefaultConfigYAML = `# SRIP configuration
#
# Values not specified here use built-in defaults. Every key can be
# overridden with an SRIP_ environment variable, e.g. SRIP_RETRY_MAX_ATTEMPTS.

log:
  level: info        # debug, info, warn, error
  format: auto       # auto, text, json

# Model gateway. The openai provider speaks to any OpenAI-compatible
# endpoint; the default points at Groq. The API key falls back to
# GROQ_API_KEY / OPENAI_API_KEY / ANTHROPIC_API_KEY when left empty.
gateway:
  provider: openai
  base_url: https://api.groq.com/openai/v1
  api_key: ""
  # Ordered fallback list, most capable first.
  models:
    - llama-3.1-70b-versatile
    - mixtral-8x7b-32768
    - llama-3.1-8b-instant
  request_timeout: 60s
  temperature: 0.1
  # Completions shorter than this are treated as invalid responses.
  min_response_chars: 150
  # 0 disables client-side pacing.
  requests_per_minute: 0
  cache:
    enabled: false
    max_entries: 256

# Per-tier retries. Delay = base_delay * attempt + tier_delay * tier index,
# capped at max_delay.
retry:
  max_attempts: 3
  base_delay: 15s
  tier_delay: 10s
  max_delay: 60s
  jitter: 0
  service_error_retries: 0

# Agents run in this order. An empty model uses the first tier.
agents:
  market:
    model: ""
    max_tokens: 1000
  competitive:
    model: ""
    max_tokens: 1000
  risk:
    model: ""
    max_tokens: 800
  strategic:
    model: ""
    max_tokens: 700

pipeline:
  max_context_chars: 8000
  max_targets: 8
  min_query_length: 10

scoring:
  # An agent must score above this to count as delivered.
  threshold: 0.30
  aggregate_floor: 0.25
  min_recommendations: 4
  weights:
    length: 0.40
    markers: 0.40
    clean: 0.20

report:
  dir: reports       # where saved reports are written
  format: markdown   # markdown, text, json, yaml
  word_wrap: 100
  include_metrics: true

trace:
  exporter: none     # none, stdout, otlp
  endpoint: localhost:4317
  service_name: srip

server:
  addr: ":8080"

batch:
  concurrency: 2
`
