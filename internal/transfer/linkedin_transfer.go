package transfer

type LinkedinUserInfo struct {
	Sub        string `json:"sub"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
	Email      string `json:"email"`
}

type LinkedinOrganizationAcls struct {
	Elements []struct {
		Organization string `json:"organization"`
		Role         string `json:"role"`
		State        string `json:"state"`
	} `json:"elements"`
}

type LinkedinNetworkSize struct {
	FirstDegreeSize int64 `json:"firstDegreeSize"`
}

type LinkedinPaging struct {
	Start int64 `json:"start"`
	Count int64 `json:"count"`
	Total int64 `json:"total"`
}

type LinkedinUgcPosts struct {
	Elements []LinkedinUgcPost `json:"elements"`
	Paging   LinkedinPaging    `json:"paging"`
}

type LinkedinUgcPost struct {
	ID      string `json:"id"`
	Created struct {
		Time int64 `json:"time"`
	} `json:"created"`
	SpecificContent struct {
		ShareContent struct {
			ShareCommentary struct {
				Text string `json:"text"`
			} `json:"shareCommentary"`
		} `json:"com.linkedin.ugc.ShareContent"`
	} `json:"specificContent"`
	TotalSocialActivityCounts struct {
		NumLikes    int64 `json:"numLikes"`
		NumComments int64 `json:"numComments"`
		NumShares   int64 `json:"numShares"`
		NumViews    int64 `json:"numViews"`
	} `json:"totalSocialActivityCounts"`
}
