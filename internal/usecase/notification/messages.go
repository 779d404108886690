package notification

var motivational = []string{
	"🌅 Доброе утро! Новый день — новые возможности для роста и развития. Какую цель поставите себе сегодня?",
	"☀️ Привет! Помните: каждый маленький шаг к своей мечте приближает вас к успеху. Вы уже на правильном пути!",
	"🌸 Прекрасного дня! Сегодня отличная возможность узнать что-то новое и стать лучше, чем вчера.",
	"💫 Здравствуйте! Ваше желание развиваться вдохновляет. Какой навык хотите улучшить сегодня?",
	"🌺 Доброго времени суток! Помните: самые великие достижения начинаются с одного решения действовать.",
	"🦋 Привет! Вы уже делаете важный шаг, инвестируя в свое развитие. Продолжайте в том же духе!",
	"🌟 Замечательного дня! Каждый день — это шанс написать новую главу своей истории успеха.",
	"🌻 Доброе утро! Ваша настойчивость в обучении — это ключ к достижению всех ваших целей.",
	"✨ Прекрасного дня! Помните: знания — это инвестиция, которая всегда окупается с лихвой.",
	"🎯 Привет! Сегодня новая возможность стать экспертом в том, что вам действительно интересно.",
	"🌈 Доброго времени суток! Ваше стремление к росту — это то, что отличает вас от остальных.",
	"💎 Здравствуйте! Каждый урок, который вы изучаете, делает вас более ценным специалистом.",
	"🚀 Отличного дня! Ваши усилия в обучении сегодня — это ваш успех завтра.",
	"⭐ Привет! Ваша целеустремленность в изучении нового материала достойна восхищения.",
}

var evening = []string{
	"🌅 Завтра новый день! Подготовьтесь к нему, изучив что-то полезное сегодня вечером.",
	"🌙 Доброго вечера! Время для спокойного изучения и подготовки к завтрашним достижениям.",
	"✨ Вечер — идеальное время для рефлексии и планирования следующих шагов в обучении.",
	"🌆 Прекрасного вечера! Завершите день чем-то полезным для вашего развития.",
	"🌟 Доброго вечера! Даже 15 минут обучения перед сном могут изменить ваше завтра.",
}

// TestMessage is sent by the /test_notification admin command.
const TestMessage = "🧪 <b>Тестовое уведомление</b>\n\n" +
	"Это тестовое сообщение для проверки системы уведомлений. " +
	"Если вы получили это сообщение, значит уведомления работают корректно!"

const greetingFormat = "Привет, %s! "
