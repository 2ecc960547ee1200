package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE platform_connections (
				id UUID PRIMARY KEY,
				platform VARCHAR(32) NOT NULL CHECK (platform IN ('google', 'facebook', 'linkedin', 'tiktok')),
				organization_id VARCHAR(255) NOT NULL,
				user_id VARCHAR(255) NOT NULL,
				access_token TEXT NOT NULL,
				refresh_token TEXT,
				scope TEXT,
				expires_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE UNIQUE INDEX idx_platform_connections_key ON platform_connections(user_id, organization_id, platform);
			CREATE INDEX idx_platform_connections_organization ON platform_connections(organization_id);
		`,
	}
}
