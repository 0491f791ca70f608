package bot

const (
	labelCategories = "Категории"
	labelProducts   = "Товары"
	labelPhones     = "Телефоны"
	labelStock      = "Склад"
	labelHelp       = "Помощь"

	labelNewCategory = "➕ Создать категорию"
	labelAddItem     = "📦 Добавить товар"
	labelBrowse      = "🔎 Просмотр склада"
	labelPrev        = "◀️"
	labelNext        = "▶️"
	labelSell        = "💰 Продать"
	labelShowPhones  = "📱 Телефоны"
	labelShowGoods   = "📦 Товары"

	msgWelcome      = "Добро пожаловать в бот учёта склада!"
	msgAdminMenu    = "Меню администратора:"
	msgHelpHeader   = "Доступные команды:"
	msgHelpAdmin    = "Команды администратора:"
	msgNoCategories = "Категорий пока нет."
	msgCategories   = "*Категории:*"
	msgNoProducts   = "Товаров в наличии нет."
	msgProducts     = "*Товары в наличии:*"
	msgNoPhones     = "Телефонов в наличии нет."
	msgPhones       = "*Телефоны в наличии:*"
	msgNoSold       = "Проданных товаров пока нет."
	msgSold         = "*Проданные товары:*"
	msgLoadFailed   = "Не удалось загрузить данные. Попробуйте позже."
	msgUnknownText  = "Не понимаю. Список команд: /help"
	msgUnknownDoc   = "Файлы не поддерживаются."
	msgUnsupported  = "Действие не поддерживается"
	msgDenied       = "Эта команда доступна только администраторам."
	msgSlowDown     = "Слишком часто. Подождите немного."
	msgBadPayload   = "Некорректные данные кнопки"
)
