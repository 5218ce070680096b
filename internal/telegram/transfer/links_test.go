package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savebot/internal/telegram/transport"
)

func TestParseLink(t *testing.T) {
	tests := []struct {
		name string
		link string
		want *LinkParts
	}{
		{
			name: "private channel numeric id",
			link: "https://t.me/c/123456789/42",
			want: &LinkParts{Chat: transport.ChatRef{ID: -100123456789}, MessageID: 42},
		},
		{
			name: "public username",
			link: "https://t.me/somechannel/7",
			want: &LinkParts{Chat: transport.ChatRef{Username: "somechannel"}, MessageID: 7},
		},
		{
			name: "topic addressed four segments",
			link: "https://t.me/c/123456789/42/7",
			want: &LinkParts{Chat: transport.ChatRef{ID: -100123456789}, MessageID: 42, TopicID: 7},
		},
		{
			name: "http scheme",
			link: "http://telegram.me/mychat/5",
			want: &LinkParts{Chat: transport.ChatRef{Username: "mychat"}, MessageID: 5},
		},
		{
			name: "story segment stripped",
			link: "https://t.me/s/somechannel/9",
			want: &LinkParts{Chat: transport.ChatRef{Username: "somechannel"}, MessageID: 9},
		},
		{
			name: "query string ignored",
			link: "https://t.me/somechannel/11?single",
			want: &LinkParts{Chat: transport.ChatRef{Username: "somechannel"}, MessageID: 11},
		},
		{
			name: "deep link numeric user",
			link: "tg://openmessage?user_id=12345&message_id=67",
			want: &LinkParts{Chat: transport.ChatRef{ID: 12345}, MessageID: 67},
		},
		{
			name: "deep link username",
			link: "tg://openmessage?user_id=someone&message_id=3",
			want: &LinkParts{Chat: transport.ChatRef{Username: "someone"}, MessageID: 3},
		},
		{
			name: "missing message id",
			link: "https://t.me/somechannel",
			want: nil,
		},
		{
			name: "non numeric message id",
			link: "https://t.me/somechannel/abc",
			want: nil,
		},
		{
			name: "non numeric topic id",
			link: "https://t.me/c/123/42/abc",
			want: nil,
		},
		{
			name: "deep link without message id",
			link: "tg://openmessage?user_id=12345",
			want: nil,
		},
		{
			name: "not a link",
			link: "hello world",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLink(tt.link)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsLikelyLink(t *testing.T) {
	assert.True(t, IsLikelyLink("https://t.me/c/123/4"))
	assert.True(t, IsLikelyLink("看看这个 https://telegram.dog/chat/5"))
	assert.True(t, IsLikelyLink("tg://openmessage?user_id=1&message_id=2"))
	assert.False(t, IsLikelyLink("你好"))
	assert.False(t, IsLikelyLink("https://example.com/foo"))
}

func TestExpandRange(t *testing.T) {
	first := ParseLink("https://t.me/c/123/10")
	require.NotNil(t, first)

	last := ExpandRange(first, 5)
	assert.Equal(t, first.Chat, last.Chat)
	assert.Equal(t, 14, last.MessageID)

	// 话题寻址时在话题 ID 上展开
	topicFirst := ParseLink("https://t.me/c/123/10/100")
	require.NotNil(t, topicFirst)
	topicLast := ExpandRange(topicFirst, 3)
	assert.Equal(t, 10, topicLast.MessageID)
	assert.Equal(t, 102, topicLast.TopicID)
}

func TestValidateRange(t *testing.T) {
	first := ParseLink("https://t.me/c/123/10")
	last := ParseLink("https://t.me/c/123/20")
	otherChat := ParseLink("https://t.me/c/456/20")
	earlier := ParseLink("https://t.me/c/123/5")

	assert.NoError(t, ValidateRange(first, last))
	assert.Error(t, ValidateRange(first, otherChat))
	assert.Error(t, ValidateRange(first, earlier))
}

func TestRangeIDs(t *testing.T) {
	first := ParseLink("https://t.me/c/123/10")
	last := ParseLink("https://t.me/c/123/13")
	assert.Equal(t, []int{10, 11, 12, 13}, RangeIDs(first, last))

	single := RangeIDs(first, first)
	assert.Equal(t, []int{10}, single)
}

func TestBuildLink(t *testing.T) {
	assert.Equal(t, "https://t.me/c/123/42",
		BuildLink(transport.ChatRef{ID: -100123}, 42, 0))
	assert.Equal(t, "https://t.me/somechannel/7",
		BuildLink(transport.ChatRef{Username: "somechannel"}, 7, 0))
	assert.Equal(t, "https://t.me/c/123/42/9",
		BuildLink(transport.ChatRef{ID: -100123}, 42, 9))
}

func TestRangeLinks(t *testing.T) {
	first := ParseLink("https://t.me/c/123/10")
	last := ParseLink("https://t.me/c/123/12")
	assert.Equal(t, []string{
		"https://t.me/c/123/10",
		"https://t.me/c/123/11",
		"https://t.me/c/123/12",
	}, RangeLinks(first, last))

	// 展开后的链接必须能解析回同样的位置
	for _, link := range RangeLinks(first, last) {
		parts := ParseLink(link)
		require.NotNil(t, parts)
		assert.Equal(t, first.Chat, parts.Chat)
	}
}
