package publisher

import "github.com/xiaoxiunique/xhs-poster/internal/xhs"

// DefaultTopics is the built-in common topic pool used when no pool is
// configured. The ids are platform-assigned and stable.
func DefaultTopics() []xhs.Topic {
	return []xhs.Topic{
		{
			ID:      "5bf54ae0e1921600011295f8",
			Name:    "程序员",
			Link:    "https://www.xiaohongshu.com/page/topics/5bf54ae0c3f6740001ee10fd?naviHidden=yes",
			ViewNum: 2919330080,
			Type:    "official",
		},
		{
			ID:      "634d21c1000000000100a578",
			Name:    "程序员开发",
			Link:    "https://www.xiaohongshu.com/page/topics/634d21c11909380001237801?naviHidden=yes",
			ViewNum: 223243,
			Type:    "official",
		},
		{
			ID:      "5c18f74f0000000003031c47",
			Name:    "每日学习",
			Link:    "https://www.xiaohongshu.com/page/topics/5c18f74fa88e2c0001db3f7e?naviHidden=yes",
			ViewNum: 111028756,
			Type:    "official",
		},
		{
			ID:      "61137a1a0000000001007dd4",
			Name:    "10分钟",
			Link:    "https://www.xiaohongshu.com/page/topics/61137a1abe0b5100013ccad1?naviHidden=yes",
			ViewNum: 2560380,
			Type:    "official",
		},
		{
			ID:      "5c0f70b73767f600014af155",
			Name:    "软件开发",
			Link:    "https://www.xiaohongshu.com/page/topics/5c0f70b75237920001b360e6?naviHidden=yes",
			ViewNum: 282335740,
			Type:    "official",
		},
		{
			ID:      "5cac833d000000000f02a8d6",
			Name:    "小程序开发",
			Link:    "https://www.xiaohongshu.com/page/topics/5cac833df6928f0001428a54?naviHidden=yes",
			ViewNum: 188394464,
			Type:    "official",
		},
		{
			ID:      "611a696f000000000100b965",
			Name:    "App开发",
			Link:    "https://www.xiaohongshu.com/page/topics/611a696f61a1e70001524c10?naviHidden=yes",
			ViewNum: 70650808,
			Type:    "official",
		},
	}
}
