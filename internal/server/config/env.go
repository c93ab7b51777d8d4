package config

import "github.com/dmitrijs2005/sealdrop/internal/flagx"

const envPrefix = "SEALDROP_"

// parseEnv overlays SEALDROP_* environment variables onto config.
func parseEnv(config *Config) error {
	flagx.EnvString(envPrefix+"HTTP_ADDR", &config.HTTPAddr)
	flagx.EnvString(envPrefix+"DATABASE_DSN", &config.DatabaseDSN)
	flagx.EnvString(envPrefix+"SECRET_KEY", &config.SecretKey)
	flagx.EnvString(envPrefix+"S3_ROOT_USER", &config.S3RootUser)
	flagx.EnvString(envPrefix+"S3_ROOT_PASSWORD", &config.S3RootPassword)
	flagx.EnvString(envPrefix+"S3_BUCKET", &config.S3Bucket)
	flagx.EnvString(envPrefix+"S3_REGION", &config.S3Region)
	flagx.EnvString(envPrefix+"S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	flagx.EnvString(envPrefix+"ESCROW_MASTER_KEY", &config.EscrowMasterKey)
	flagx.EnvString(envPrefix+"ADMIN_EMAIL", &config.AdminEmail)
	flagx.EnvString(envPrefix+"ADMIN_PASSWORD", &config.AdminPassword)
	flagx.EnvString(envPrefix+"SMTP_HOST", &config.SMTPHost)
	flagx.EnvString(envPrefix+"SMTP_USER", &config.SMTPUser)
	flagx.EnvString(envPrefix+"SMTP_PASSWORD", &config.SMTPPassword)
	flagx.EnvString(envPrefix+"SMTP_FROM", &config.SMTPFrom)
	flagx.EnvString(envPrefix+"LOG_LEVEL", &config.LogLevel)

	if err := flagx.EnvInt64(envPrefix+"SMTP_PORT", &config.SMTPPort); err != nil {
		return err
	}
	if err := flagx.EnvInt64(envPrefix+"MAX_UPLOAD_SIZE", &config.MaxUploadSize); err != nil {
		return err
	}
	if err := flagx.EnvDuration(envPrefix+"ACCESS_TOKEN_TTL", &config.AccessTokenValidityDuration); err != nil {
		return err
	}
	if err := flagx.EnvDuration(envPrefix+"REFRESH_TOKEN_TTL", &config.RefreshTokenValidityDuration); err != nil {
		return err
	}
	return flagx.EnvDuration(envPrefix+"PRESIGN_TTL", &config.PresignTTL)
}
