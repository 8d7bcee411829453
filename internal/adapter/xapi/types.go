package xapi

import "time"

// Wire types for the X API v2 JSON envelopes. Only the fields the bot reads
// are mapped.

type userObject struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
	Verified      bool      `json:"verified"`
	PublicMetrics struct {
		FollowersCount int `json:"followers_count"`
		FollowingCount int `json:"following_count"`
		TweetCount     int `json:"tweet_count"`
	} `json:"public_metrics"`
}

type tweetObject struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	AuthorID      string    `json:"author_id"`
	CreatedAt     time.Time `json:"created_at"`
	PublicMetrics struct {
		LikeCount    int `json:"like_count"`
		RetweetCount int `json:"retweet_count"`
		ReplyCount   int `json:"reply_count"`
		QuoteCount   int `json:"quote_count"`
	} `json:"public_metrics"`
	ReferencedTweets []struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"referenced_tweets"`
}

type userResponse struct {
	Data *userObject `json:"data"`
}

type usersResponse struct {
	Data []userObject `json:"data"`
}

type tweetsResponse struct {
	Data []tweetObject `json:"data"`
}

type tweetLookupResponse struct {
	Data     *tweetObject `json:"data"`
	Includes struct {
		Users []userObject `json:"users"`
	} `json:"includes"`
}

type createTweetRequest struct {
	Text  string `json:"text"`
	Reply struct {
		InReplyToTweetID string `json:"in_reply_to_tweet_id"`
	} `json:"reply"`
}

type createTweetResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}
