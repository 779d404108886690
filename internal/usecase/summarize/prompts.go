package summarize

type prompt struct {
	system string
	user   string
}

var (
	namePrompt = prompt{
		system: "Вы профессиональный контент-анализатор. Придумайте четкое, краткое название.",
		user: "Основываясь на этом контенте, предложите подходящее название для видео (макс. 5 слов). " +
			"В качестве результата оставь только предлагаемое название",
	}

	shortPrompt = prompt{
		system: "Вы профессиональный автор контента. " +
			"Создайте краткое описание в формате характеристик и ключевых моментов.",
		user: "Создайте краткое описание (1-2 предложения) основных идей и практической пользы этого контента. " +
			"Пишите в стиле аннотации, перечисляя ключевые темы и выводы. " +
			"Не используйте форму пересказа от третьего лица. В качестве результата оставь только описание",
	}

	longPrompt = prompt{
		system: "Вы профессиональный автор контента. " +
			"Создайте информативное описание в формате структурированного резюме.",
		user: "Создайте подробное описание (3-5 предложений), перечисляя основные темы, " +
			"обсуждаемые вопросы и ключевые выводы. Пишите как аннотацию или резюме материала, " +
			"описывая содержание через перечисление тем и идей. Не пересказывайте от третьего лица. " +
			"В качестве результата оставь только описание",
	}
)
