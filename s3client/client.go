package s3client

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"text2phenotype.com/standoff/logger"
)

type EnvironmentConfig struct {
	BucketName  string `envconfig:"MDL_COMN_STORAGE_CONTAINER_NAME" required:"true"`
	T2PEnv      string `envconfig:"T2P_ENV" required:"true"`
	Region      string `envconfig:"MDL_COMN_AWS_REGION_NAME" required:"true"`
	AwsEndpoint string `envconfig:"MDL_COMN_AWS_ENDPOINT_URL" default:""`
	AccessKeyID string `envconfig:"MDL_COMN_AWS_ACCESS_ID" default:""`
	AccessKey   string `envconfig:"MDL_COMN_AWS_ACCESS_KEY" default:""`
}

// Client reads standoff files from and writes graphs to one bucket. A
// background goroutine owns the session and replaces it when a request
// reports an error.
type Client struct {
	holder     *sessionHolder
	bucketName string
	env        EnvironmentConfig
}

type sessionHolder struct {
	curr      *session.Session
	requestCh <-chan *session.Session
	errorCh   chan<- error
	closeCh   chan<- struct{}
}

var clientLogger = logger.NewLogger("S3Client")
var sdkLogger = logger.NewLogger("S3-SDK")

func New() (*Client, error) {
	var env EnvironmentConfig
	if err := envconfig.Process("", &env); err != nil {
		clientLogger.Err(err).Caller().Msg("Failed to get proper variables from environment")
		return nil, err
	}
	client := Client{
		bucketName: env.BucketName,
		env:        env,
	}
	sessionCh := make(chan *session.Session)
	errorCh := make(chan error)
	closeCh := make(chan struct{}, 1)
	client.holder = &sessionHolder{
		requestCh: sessionCh,
		errorCh:   errorCh,
		closeCh:   closeCh,
	}
	if err := client.acquireNewSession(); err != nil {
		return nil, err
	}
	go keepSessionRefreshed(&client, sessionCh, errorCh, closeCh)
	return &client, nil
}

func (client Client) Upload(data []byte, key string, contentType string) error {
	params := &s3manager.UploadInput{
		Bucket:      aws.String(client.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}
	return client.withSession(func(sess *session.Session) error {
		_, err := s3manager.NewUploader(client.sdkSession(sess, key)).Upload(params)
		return err
	})
}

func (client Client) Download(key string) ([]byte, error) {
	params := &s3.GetObjectInput{
		Bucket: aws.String(client.bucketName),
		Key:    aws.String(key),
	}
	var result []byte
	err := client.withSession(func(sess *session.Session) error {
		buf := aws.NewWriteAtBuffer([]byte{})
		size, err := s3manager.NewDownloader(client.sdkSession(sess, key)).Download(buf, params)
		if err != nil {
			return err
		}
		clientLogger.Debug().Str("key", key).Int64("bytes", size).Msg("Downloaded file")
		result = buf.Bytes()
		return nil
	})
	return result, err
}

func (client Client) Close() {
	client.holder.closeCh <- struct{}{}
}

// withSession runs request once, and once more on a refreshed session if
// the first attempt failed.
func (client Client) withSession(request func(sess *session.Session) error) error {
	sess, err := client.session()
	if err != nil {
		return err
	}
	if err = request(sess); err == nil {
		return nil
	}
	sess, err = client.tryRefreshingSession(err)
	if err != nil {
		return err
	}
	return request(sess)
}

func (client Client) sdkSession(sess *session.Session, key string) *session.Session {
	sdkLog := sdkLogger.With().
		Str("key", key).
		Str("bucket", client.bucketName).Logger()
	return sess.Copy(&aws.Config{Logger: sdkLoggerAdapter{sdkLog}})
}

func keepSessionRefreshed(client *Client, sessionCh chan<- *session.Session, errorCh <-chan error, closeCh <-chan struct{}) {
	for {
		select {
		case sessionCh <- client.holder.curr:
			continue
		default:
		}
		select {
		case sessionCh <- client.holder.curr:
		case err := <-errorCh:
			clientLogger.Error().Err(err).Msg("Caught error while using S3 session, trying to refresh it")
			if err = client.acquireNewSession(); err != nil {
				clientLogger.Error().Err(err).Msg("Caught error while refreshing S3 session")
				continue
			}
			clientLogger.Info().Msg("Successfully refreshed session")
		case <-closeCh:
			clientLogger.Info().Msg("Closing client")
			return
		}
	}
}

func (client Client) tryRefreshingSession(err error) (*session.Session, error) {
	var sess *session.Session
	select {
	case client.holder.errorCh <- err:
		sess = <-client.holder.requestCh
	case sess = <-client.holder.requestCh:
	}
	if sess == nil {
		return nil, fmt.Errorf("failed to refresh session after: %w", err)
	}
	return sess, nil
}

func (client Client) session() (*session.Session, error) {
	sess := <-client.holder.requestCh
	if sess == nil {
		return nil, errors.New("could not get session")
	}
	return sess, nil
}

func (client Client) ec2Config() *aws.Config {
	return aws.NewConfig().
		WithRegion(client.env.Region).
		WithMaxRetries(4).
		WithLogLevel(aws.LogDebug)
}

func (client Client) envConfig() (*aws.Config, error) {
	creds := credentials.NewStaticCredentials(client.env.AccessKeyID, client.env.AccessKey, "")
	if _, err := creds.Get(); err != nil {
		return nil, fmt.Errorf("credentials from environment: %w", err)
	}
	cfg := client.ec2Config().WithCredentials(creds)
	if client.env.T2PEnv == "dev" && len(client.env.AwsEndpoint) > 0 {
		cfg = cfg.WithEndpoint(client.env.AwsEndpoint).WithS3ForcePathStyle(true)
	}
	return cfg, nil
}

// acquireNewSession prefers the instance role and falls back to static
// credentials from the environment.
func (client *Client) acquireNewSession() error {
	sess, err := verifiedSession(client.ec2Config())
	if err == nil {
		client.holder.curr = sess
		clientLogger.Info().Msg("S3 session successfully initialized using EC2")
		return nil
	}
	clientLogger.Info().Err(err).Msg("Could not initialize S3 session using EC2, trying env credentials")

	cfg, err := client.envConfig()
	if err == nil {
		sess, err = verifiedSession(cfg)
	}
	if err != nil {
		client.holder.curr = nil
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return errors.New("could not initialize S3 session")
	}
	client.holder.curr = sess
	clientLogger.Info().Msg("S3 session successfully initialized using env credentials")
	return nil
}

func verifiedSession(cfg *aws.Config) (*session.Session, error) {
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	if _, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{}); err != nil {
		return nil, err
	}
	return sess, nil
}

type sdkLoggerAdapter struct {
	fdlLogger zerolog.Logger
}

func (adapter sdkLoggerAdapter) Log(v ...interface{}) {
	adapter.fdlLogger.Debug().Msg(fmt.Sprint(v...))
}
