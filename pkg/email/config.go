package email

// Transport names accepted by Config.Transport.
const (
	TransportSMTP     = "smtp"
	TransportPostmark = "postmark"
	TransportResend   = "resend"
	TransportDev      = "dev"
)

// Config holds mail transport configuration.
// Transport picks exactly one backend at start-up; credentials for the other
// backends are ignored. From is required because every backend needs a sender
// identity when the envelope does not carry one.
type Config struct {
	Transport string `env:"MAIL_TRANSPORT" envDefault:"smtp"`
	From      string `env:"MAIL_FROM,required"`
	ReplyTo   string `env:"MAIL_REPLY_TO"`

	SMTPHost      string `env:"SMTP_HOST"`
	SMTPPort      int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername  string `env:"SMTP_USERNAME"`
	SMTPPassword  string `env:"SMTP_PASSWORD"`
	SMTPSSL       bool   `env:"SMTP_SSL" envDefault:"false"` // implicit TLS (port 465); STARTTLS otherwise
	SMTPLocalName string `env:"SMTP_LOCAL_NAME"`

	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`

	ResendAPIKey string `env:"RESEND_API_KEY"`

	DevDir string `env:"MAIL_DEV_DIR" envDefault:"./tmp/emails"`
}
