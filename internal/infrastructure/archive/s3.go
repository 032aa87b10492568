// Package archive conserva copia de los XML FatturaPA generados en un bucket S3
// (o compatible, vía Endpoint).
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/jhoicas/psicofattura/pkg/config"
)

// S3Archiver sube documentos al bucket configurado.
type S3Archiver struct {
	client *s3.S3
	bucket string
	prefix string
}

// NewS3Archiver crea la sesión AWS. Sin AccessKey usa la cadena de credenciales por defecto.
func NewS3Archiver(cfg config.ArchiveConfig) (*S3Archiver, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("archive: sesión s3: %w", err)
	}
	return &S3Archiver{client: s3.New(sess), bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// ObjectKey ruta del objeto: <prefix>/<year>/<filename>.
func ObjectKey(prefix string, year int, filename string) string {
	return path.Join(prefix, strconv.Itoa(year), filename)
}

// Archive sube el XML y devuelve la clave del objeto. hash se guarda como metadato.
func (a *S3Archiver) Archive(ctx context.Context, year int, filename, xml, hash string) (string, error) {
	key := ObjectKey(a.prefix, year, filename)
	body := []byte(xml)
	_, err := a.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("application/xml"),
		Metadata:      map[string]*string{"Sha256": aws.String(hash)},
	})
	if err != nil {
		return "", fmt.Errorf("archive: subir %s: %w", key, err)
	}
	return key, nil
}
