package harvest

import (
	"context"
	"log"
	"os"
	"strings"

	"fedharvest/common"
	"fedharvest/config"
)

// Mirror writes published artifacts to an S3 bucket as a secondary copy.
type Mirror struct {
	client *common.S3
	bucket string
	prefix string
}

// MirrorFromEnv returns a Mirror if configured via env, else nil (mirroring
// disabled). Required: S3_BUCKET. Optional: S3_REGION, S3_PROFILE, S3_PREFIX,
// S3_USE_PATH_STYLE=true.
func MirrorFromEnv(ctx context.Context) *Mirror {
	bucket := strings.TrimSpace(os.Getenv("S3_BUCKET"))
	if bucket == "" {
		return nil
	}

	cfg := common.S3Config{
		Region:       strings.TrimSpace(os.Getenv("S3_REGION")),
		Profile:      strings.TrimSpace(os.Getenv("S3_PROFILE")),
		UsePathStyle: strings.EqualFold(strings.TrimSpace(os.Getenv("S3_USE_PATH_STYLE")), "true"),
	}
	client, err := common.NewS3(ctx, cfg)
	if err != nil {
		log.Printf("Warning: failed to init S3 client: %v (mirroring disabled)", err)
		return nil
	}

	prefix := strings.TrimSpace(os.Getenv("S3_PREFIX"))
	if prefix != "" {
		prefix = strings.Trim(prefix, "/") + "/"
	}
	return &Mirror{client: client, bucket: bucket, prefix: prefix}
}

// Upload stores the artifact under {prefix}{repoName}/data.parquet.
func (m *Mirror) Upload(ctx context.Context, repoName string, artifact []byte) error {
	key := m.prefix + repoName + "/" + config.ArtifactFileName
	return m.client.Put(ctx, m.bucket, key, artifact, "application/octet-stream")
}
