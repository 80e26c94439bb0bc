package models

// Language constants
const (
	LangIndonesian = "id"
	LangEnglish    = "en"
)

// Translation is a map of message keys to translated text
type Translation map[string]string

// Translations stores all notice texts. Keys ending in _group are posted
// in a group, keys ending in _direct are sent to the user privately.
var Translations = map[string]Translation{
	LangIndonesian: {
		"default_user_name": "Pengguna",

		"warn_group":  "⚠️ Peringatan kepada %s, pesan Anda terdeteksi sebagai promosi judi online!",
		"warn_direct": "⚠️ Peringatan kepada %s, pesan Anda di dalam grup telah dihapus karena terdeteksi sebagai promosi judi online!",

		"mute_automatic_group":  "🔇 %s dimute karena pelanggaran berulang!",
		"mute_automatic_direct": "🔇 Anda telah dimute karena pelanggaran berulang di semua grup!",
		"mute_admin_group":      "🔇 %s dimute oleh Admin karena melakukan promosi judi online berulang kali!",
		"mute_admin_direct":     "🔇 Anda telah dimute oleh Admin di semua grup karena melakukan promosi judi online berulang kali!",

		"ban_automatic_group":  "🚫 %s dikeluarkan dan diblokir dari grup karena pelanggaran berulang kali!",
		"ban_automatic_direct": "🚫 Anda telah dikeluarkan dan diblokir dari semua grup karena pelanggaran berulang kali!",
		"ban_admin_group":      "🚫 %s dikeluarkan dan diblokir oleh Admin karena melakukan promosi judi online berulang kali!",
		"ban_admin_direct":     "🚫 Anda telah dikeluarkan dan diblokir oleh Admin di semua grup karena melakukan promosi judi online berulang kali!",
		"ban_rejoin_group":     "🚫 %s telah diblokir karena pelanggaran dan tidak diperbolehkan untuk bergabung ke dalam grup!",
		"ban_rejoin_direct":    "🚫 Anda telah diblokir karena pelanggaran dan tidak diperbolehkan untuk bergabung ke dalam grup!",

		"unmute_expiry_group":  "🔊 %s telah di unmute karena durasi mute user sudah berakhir!",
		"unmute_expiry_direct": "🔊 Durasi mute Anda telah berakhir, sekarang Anda dapat mengirim pesan lagi di semua grup!",
		"unmute_admin_group":   "🔊 %s telah di unmute oleh Admin!",
		"unmute_admin_direct":  "🔊 Anda telah di unmute oleh Admin di semua grup!",

		"unban_admin_direct": "🔓 Anda telah di unban (dihapus dari daftar blokir user) oleh Admin dan bisa bergabung kembali ke dalam grup!",

		"reclassify_violating_group":  "⚠️ Pesan dari %s telah dihapus oleh Admin karena termasuk promosi judi online!",
		"reclassify_violating_direct": "⚠️ Pesan Anda di dalam grup telah dihapus oleh Admin karena termasuk promosi judi online!",
		"reclassify_clean_group":      "✅ Pesan dari %s telah dihapus dari daftar pelanggaran oleh Admin!\n\nPesan : %s",
		"reclassify_clean_direct":     "✅ Pesan Anda telah dihapus dari daftar pelanggaran oleh Admin karena tidak termasuk promosi judi online!",

		"start_private": "Halo %s! Saya AntiJudiBot! 👋🏻\n\n" +
			"Saya adalah bot untuk melindungi grup Anda dari pesan promosi judi online!\n\n" +
			"Fitur Utama:\n" +
			"- Deteksi & hapus otomatis pesan promosi judi online.\n" +
			"- Peringatan dan mute otomatis bagi pengguna yang melanggar.\n" +
			"- Auto-kick & blokir pengguna yang melakukan pelanggaran secara berulang.\n" +
			"- Dashboard AntiJudiBot untuk admin grup.\n\n" +
			"Klik tombol di bawah untuk menambahkan AntiJudiBot ke dalam grup! ⬇️",
		"start_add_to_group_button": "➕ Tambahkan AntiJudiBot ke dalam Grup",
		"start_in_group":            "🚫 Gunakan /start_antijudibot untuk mengaktifkan AntiJudiBot di dalam grup ini!",
		"verify_success":            "✅ Verifikasi berhasil - Anda telah terverifikasi dan dapat berinteraksi di grup seperti biasa!",
		"verify_button":             "✅ Verifikasi",
		"verify_prompt_group":       "Semua anggota grup harus verifikasi dengan klik tombol di bawah dan tekan tombol START di DM bot!",
		"verify_welcome_member": "Halo %s! Selamat datang!  👋🏻\n\n" +
			"Saya AntiJudiBot yang akan membantu menjaga grup ini dari pesan promosi judi online.\n\n" +
			"Silakan verifikasi dengan klik tombol di bawah dan tekan tombol START di DM bot agar dapat mengirim pesan!",

		"bot_added_welcome": "Halo semua! Saya AntiJudiBot! 👋🏻\n\n" +
			"Saya akan membantu mendeteksi dan menghapus pesan promosi judi online di dalam grup ini.\n\n" +
			"Admin Commands:\n" +
			"- /start_antijudibot - Aktifkan bot di grup\n" +
			"- /stop_antijudibot - Nonaktifkan bot di grup\n" +
			"- /status_antijudibot - Cek status bot di grup\n\n" +
			"Pastikan saya telah menjadi Admin dan memiliki izin akses di dalam grup! ✅",

		"cmd_group_only":        "🚫 Gunakan %s di dalam grup!",
		"cmd_activate_admin":    "🚫 Hanya Admin yang dapat mengaktifkan AntiJudiBot di dalam grup ini!",
		"cmd_deactivate_admin":  "🚫 Hanya Admin yang dapat menonaktifkan AntiJudiBot di dalam grup ini!",
		"cmd_status_admin":      "🚫 Hanya Admin yang dapat mengecek status AntiJudiBot di dalam grup ini!",
		"bot_not_admin":         "⚠️ Bot belum menjadi Admin di dalam grup ini - Pastikan bot telah menjadi Admin dan memiliki izin akses di dalam grup!",
		"group_already_active":  "✅ AntiJudiBot telah diaktifkan di dalam grup ini!",
		"group_activated":       "✅ AntiJudiBot aktif di dalam grup ini!",
		"group_not_active":      "⚠️ AntiJudiBot belum aktif di dalam grup ini!",
		"group_deactivated":     "⛔ AntiJudiBot dinonaktifkan di dalam grup ini!",
		"group_status_inactive": "⚠️ AntiJudiBot tidak aktif di dalam grup ini!",
		"group_status_active": "✅ AntiJudiBot aktif di dalam grup ini!\n\n" +
			"Aktivasi oleh : %s\n" +
			"Tanggal Aktivasi : %s\n" +
			"Jam Aktivasi : %s",
		"operation_failed": "❌ Terjadi kesalahan, silakan coba lagi nanti.",

		"cmd_desc_start":  "Mulai bot atau verifikasi",
		"cmd_desc_on":     "Aktifkan AntiJudiBot di grup",
		"cmd_desc_off":    "Nonaktifkan AntiJudiBot di grup",
		"cmd_desc_status": "Cek status AntiJudiBot di grup",
	},
	LangEnglish: {
		"default_user_name": "User",

		"warn_group":  "⚠️ Warning to %s, your message was detected as online gambling promotion!",
		"warn_direct": "⚠️ Warning to %s, your message in the group was deleted because it was detected as online gambling promotion!",

		"mute_automatic_group":  "🔇 %s was muted for repeated violations!",
		"mute_automatic_direct": "🔇 You have been muted in all groups for repeated violations!",
		"mute_admin_group":      "🔇 %s was muted by an admin for repeated online gambling promotion!",
		"mute_admin_direct":     "🔇 You have been muted by an admin in all groups for repeated online gambling promotion!",

		"ban_automatic_group":  "🚫 %s was removed and banned from the group for repeated violations!",
		"ban_automatic_direct": "🚫 You have been removed and banned from all groups for repeated violations!",
		"ban_admin_group":      "🚫 %s was removed and banned by an admin for repeated online gambling promotion!",
		"ban_admin_direct":     "🚫 You have been removed and banned by an admin from all groups for repeated online gambling promotion!",
		"ban_rejoin_group":     "🚫 %s is banned for violations and may not join this group!",
		"ban_rejoin_direct":    "🚫 You are banned for violations and may not join the group!",

		"unmute_expiry_group":  "🔊 %s was unmuted because the mute period ended!",
		"unmute_expiry_direct": "🔊 Your mute period has ended, you can send messages in all groups again!",
		"unmute_admin_group":   "🔊 %s was unmuted by an admin!",
		"unmute_admin_direct":  "🔊 You have been unmuted by an admin in all groups!",

		"unban_admin_direct": "🔓 You have been unbanned by an admin and may join the groups again!",

		"reclassify_violating_group":  "⚠️ A message from %s was deleted by an admin because it is online gambling promotion!",
		"reclassify_violating_direct": "⚠️ Your message in the group was deleted by an admin because it is online gambling promotion!",
		"reclassify_clean_group":      "✅ A message from %s was removed from the violation list by an admin!\n\nMessage : %s",
		"reclassify_clean_direct":     "✅ Your message was removed from the violation list by an admin because it is not online gambling promotion!",

		"start_private": "Hello %s! I am AntiJudiBot! 👋🏻\n\n" +
			"I protect your groups from online gambling promotion!\n\n" +
			"Features:\n" +
			"- Automatic detection and removal of gambling promotion.\n" +
			"- Warnings and automatic mutes for violators.\n" +
			"- Automatic kick and ban for repeat violators.\n" +
			"- AntiJudiBot dashboard for group admins.\n\n" +
			"Press the button below to add AntiJudiBot to a group! ⬇️",
		"start_add_to_group_button": "➕ Add AntiJudiBot to a group",
		"start_in_group":            "🚫 Use /start_antijudibot to activate AntiJudiBot in this group!",
		"verify_success":            "✅ Verification succeeded - you can now take part in the groups as usual!",
		"verify_button":             "✅ Verify",
		"verify_prompt_group":       "All members must verify by pressing the button below and then START in the bot's private chat!",
		"verify_welcome_member": "Hello %s! Welcome!  👋🏻\n\n" +
			"I am AntiJudiBot and I keep this group free of online gambling promotion.\n\n" +
			"Please verify by pressing the button below and then START in the bot's private chat to be able to send messages!",

		"bot_added_welcome": "Hello everyone! I am AntiJudiBot! 👋🏻\n\n" +
			"I detect and delete online gambling promotion in this group.\n\n" +
			"Admin Commands:\n" +
			"- /start_antijudibot - Activate the bot in this group\n" +
			"- /stop_antijudibot - Deactivate the bot in this group\n" +
			"- /status_antijudibot - Check the bot status in this group\n\n" +
			"Make sure I am an admin with the required permissions! ✅",

		"cmd_group_only":        "🚫 Use %s inside a group!",
		"cmd_activate_admin":    "🚫 Only admins can activate AntiJudiBot in this group!",
		"cmd_deactivate_admin":  "🚫 Only admins can deactivate AntiJudiBot in this group!",
		"cmd_status_admin":      "🚫 Only admins can check the AntiJudiBot status in this group!",
		"bot_not_admin":         "⚠️ The bot is not an admin in this group - make sure it is an admin with the required permissions!",
		"group_already_active":  "✅ AntiJudiBot is already active in this group!",
		"group_activated":       "✅ AntiJudiBot is active in this group!",
		"group_not_active":      "⚠️ AntiJudiBot is not active in this group yet!",
		"group_deactivated":     "⛔ AntiJudiBot has been deactivated in this group!",
		"group_status_inactive": "⚠️ AntiJudiBot is not active in this group!",
		"group_status_active": "✅ AntiJudiBot is active in this group!\n\n" +
			"Activated by : %s\n" +
			"Activation date : %s\n" +
			"Activation time : %s",
		"operation_failed": "❌ Something went wrong, please try again later.",

		"cmd_desc_start":  "Start the bot or verify",
		"cmd_desc_on":     "Activate AntiJudiBot in the group",
		"cmd_desc_off":    "Deactivate AntiJudiBot in the group",
		"cmd_desc_status": "Check the AntiJudiBot status in the group",
	},
}

// GetTranslation returns the correct translation for a given language code and key
func GetTranslation(lang, key string) string {
	// Default to Indonesian if language not supported
	if _, ok := Translations[lang]; !ok {
		lang = LangIndonesian
	}

	if translation, ok := Translations[lang][key]; ok {
		return translation
	}

	if translation, ok := Translations[LangIndonesian][key]; ok {
		return translation
	}

	// Return the key itself if translation not found
	return key
}

// GetLanguageName returns the display name of a language code
func GetLanguageName(langCode string) string {
	switch langCode {
	case LangIndonesian:
		return "Bahasa Indonesia"
	case LangEnglish:
		return "English"
	default:
		return langCode
	}
}
