package imagesel

const (
	themeStudio = "studio"
	themePet    = "pet"
)

type theme struct {
	name    string
	prompt  string
	context string
}

var themes = []theme{
	{
		name: themeStudio,
		prompt: "polaroid-style instant film photo, " +
			"small Japanese rehearsal studio, cables and amps on the floor, " +
			"guitars and bass leaning on the wall, " +
			"slightly messy but cozy, real photo, soft flash, grainy film texture",
		context: "スタジオでの練習風景をポラロイドで撮った写真",
	},
	{
		name:    themePet,
		context: "道でばったり会った猫や友だちの犬をポラロイドで撮ったみたいな写真",
	},
}

var petAnimals = []string{"street cat", "friend's dog"}

func petPrompt(animal string) string {
	return "polaroid-style instant film photo of a " + animal + ", " +
		"shot in Japan, candid everyday moment, " +
		"slightly faded colors, soft flash, grainy film, real snapshot"
}

const (
	describeSystemPrompt = "あなたは画像の雰囲気を短く要約するアシスタントです。"
	describeUserPrompt   = "この画像に写っている人数・場所・空気感を、" +
		"女子大学生バンドのSNS担当向けに、50文字以内の日本語でまとめてください。"
)
