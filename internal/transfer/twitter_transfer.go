package transfer

type TwitterPublicMetrics struct {
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
	TweetCount     int64 `json:"tweet_count"`
	ListedCount    int64 `json:"listed_count"`
	LikeCount      int64 `json:"like_count"`
}

type TwitterUserResponse struct {
	Data struct {
		ID              string               `json:"id"`
		Name            string               `json:"name"`
		Username        string               `json:"username"`
		ProfileImageURL string               `json:"profile_image_url"`
		Verified        bool                 `json:"verified"`
		PublicMetrics   TwitterPublicMetrics `json:"public_metrics"`
	} `json:"data"`
}

type TwitterTweetsResponse struct {
	Data []TwitterTweet `json:"data"`
	Meta struct {
		ResultCount int64 `json:"result_count"`
	} `json:"meta"`
}

type TwitterTweet struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	CreatedAt     string `json:"created_at"`
	PublicMetrics struct {
		RetweetCount    int64 `json:"retweet_count"`
		ReplyCount      int64 `json:"reply_count"`
		LikeCount       int64 `json:"like_count"`
		QuoteCount      int64 `json:"quote_count"`
		ImpressionCount int64 `json:"impression_count"`
	} `json:"public_metrics"`
}
