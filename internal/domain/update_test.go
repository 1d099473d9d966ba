package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCampaignUpdate_HasVideo(t *testing.T) {
	assert.False(t, (&CampaignUpdate{}).HasVideo())
	assert.True(t, (&CampaignUpdate{VideoURL: "https://youtu.be/abc"}).HasVideo())
	assert.True(t, (&CampaignUpdate{VideoEmbedCode: "<iframe></iframe>"}).HasVideo())
}
