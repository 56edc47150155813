package danmaku

// Category names a pool of comment templates.
type Category string

const (
	CategoryTrump       Category = "trump_specific"
	CategoryShowPraise  Category = "daily_show_praise"
	CategoryTranslation Category = "translation_praise"
	CategoryPolitical   Category = "political_reactions"
	CategoryEngagement  Category = "viewer_engagement"
	CategoryGeneral     Category = "general_reactions"
	CategoryEmoji       Category = "emoji_reactions"
	CategoryOpening     Category = "opening"
	CategoryEnding      Category = "ending"
	CategoryHighlight   Category = "highlight"
)

var templates = map[Category][]string{
	CategoryTrump: {
		"川普：我不是，我没有，别瞎说",
		"经典川普式发言",
		"川普表情包预定",
		"懂王又开始了",
		"这演技也就骗骗美国人",
		"川普：fake news！",
		"建议川普去说相声",
		"川普的商业头脑",
		"这就是川普style",
	},
	CategoryShowPraise: {
		"Daily Show永远的神",
		"Trevor Noah笑死人",
		"美式政治讽刺天花板",
		"这节目太敢说了",
		"老美的春晚",
		"比SNL还要精彩",
		"政治段子手",
		"美国版今日说法",
		"这节目在国内播不了",
	},
	CategoryTranslation: {
		"这翻译太神了",
		"翻译小哥功力深厚",
		"本土化翻译满分",
		"翻译比原版还好笑",
		"这梗翻译绝了",
		"up主翻译水平可以",
		"字幕组辛苦了",
		"翻译很有文化",
		"这翻译有内味了",
	},
	CategoryPolitical: {
		"政治就是这么魔幻",
		"现实比小说还离谱",
		"政客都是演员",
		"政治娱乐化的典型",
		"这比电视剧还精彩",
		"政治圈真是大型连续剧",
		"权力的游戏现实版",
		"政客的演技都不错",
		"政治真的很有意思",
	},
	CategoryEngagement: {
		"求更新这类视频",
		"三连支持up主",
		"已投币收藏",
		"转发给朋友看",
		"求完整版资源",
		"哪里能看原版？",
		"up主品味真不错",
		"期待下期更新",
		"这up主有点东西",
		"关注了，继续更新",
		"求做成合集",
		"建议做个系列",
	},
	CategoryGeneral: {
		"笑死我了哈哈哈",
		"绷不住了",
		"真实到离谱",
		"节目效果拉满",
		"这也太搞笑了",
		"我的天哪",
		"无语了",
		"太真实了",
		"笑到肚子疼",
		"神了神了",
		"这什么情况",
		"离大谱了",
	},
	CategoryEmoji: {
		"😂😂😂😂",
		"🤣🤣🤣",
		"😆😆😆",
		"👏👏👏",
		"🔥🔥🔥",
		"💯💯💯",
		"👍👍👍",
		"😱😱😱",
		"🤔🤔🤔",
		"😏😏😏",
	},
	CategoryOpening:   {"来了来了", "又更新了", "坐等开始", "搬好小板凳"},
	CategoryEnding:    {"up主辛苦了", "期待下期", "三连走起", "已关注"},
	CategoryHighlight: {"重点来了！", "这就是经典", "笑死了", "太真实", "神评论"},
}

// highlightKeywords mark transcript lines worth a reaction.
var highlightKeywords = []string{
	"trump", "president", "election", "joke", "laugh", "funny",
	"川普", "特朗普", "总统", "选举", "笑",
}

type weight struct {
	category Category
	p        float64
}

// weights returns the category distribution in a fixed order so draws are
// reproducible for a given seed.
func weights(trumpFocus, includeEmoji bool) []weight {
	emoji := 0.05
	if !includeEmoji {
		emoji = 0
	}
	if trumpFocus {
		return []weight{
			{CategoryTrump, 0.25},
			{CategoryShowPraise, 0.20},
			{CategoryTranslation, 0.15},
			{CategoryPolitical, 0.15},
			{CategoryEngagement, 0.10},
			{CategoryGeneral, 0.10},
			{CategoryEmoji, emoji},
		}
	}
	return []weight{
		{CategoryTrump, 0.10},
		{CategoryShowPraise, 0.25},
		{CategoryTranslation, 0.20},
		{CategoryPolitical, 0.15},
		{CategoryEngagement, 0.15},
		{CategoryGeneral, 0.10},
		{CategoryEmoji, emoji},
	}
}

// styleChoices lists the styles a category may be drawn in.
var styleChoices = map[Category][]string{
	CategoryTrump:       {"red_scroll", "big_red"},
	CategoryShowPraise:  {"yellow", "top"},
	CategoryTranslation: {"green", "scroll"},
	CategoryPolitical:   {"blue", "scroll"},
	CategoryEngagement:  {"bottom"},
	CategoryEmoji:       {"scroll", "top"},
	CategoryOpening:     {"scroll"},
	CategoryEnding:      {"bottom"},
	CategoryHighlight:   {"top"},
}
