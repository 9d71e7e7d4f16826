package lambdaboot

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	name string
	err  error
}

func (f *fakeSSM) GetParameter(ctx context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.name = aws.ToString(in.Name)
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: aws.String("from-ssm")}}, nil
}

func TestFetchGeminiKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")
	f := &fakeSSM{}
	key, err := FetchGeminiKey(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)
	assert.Empty(t, f.name)

	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv(EnvSSMAPIKeyParam, "")
	key, err = FetchGeminiKey(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, "from-ssm", key)
	assert.Equal(t, DefaultAPIKeyParam, f.name)

	t.Setenv(EnvSSMAPIKeyParam, "/custom/key")
	_, err = FetchGeminiKey(context.Background(), &fakeSSM{err: errors.New("ParameterNotFound")})
	assert.Error(t, err)
	assert.Equal(t, "/custom/key", APIKeyParam())
}

func TestInitBucket(t *testing.T) {
	t.Setenv(EnvStyleBucket, "style-assets")
	t.Setenv(EnvStylePrefix, "styles/")
	t.Setenv(EnvStylePublicBaseURL, "https://cdn.example.com")

	b := InitBucket(s3.New(s3.Options{Region: "us-east-1"}), EnvStyleBucket, EnvStylePrefix, EnvStylePublicBaseURL)
	assert.Equal(t, "style-assets", b.Name)
	assert.Equal(t, "https://cdn.example.com/styles/neon.png", b.PublicURL("neon.png"))
	assert.NotNil(t, b.Presign)

	t.Setenv(EnvUploadBucket, "")
	assert.Nil(t, InitBucketOptional(s3.New(s3.Options{Region: "us-east-1"}), EnvUploadBucket, "", ""))
}
