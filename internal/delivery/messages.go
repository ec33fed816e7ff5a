package delivery

const savePrefix = "To save your FIQuest data:\n"

func safariTouchMessage(filename string) string {
	return savePrefix +
		"1. Tap and hold the content\n" +
		"2. Select \"Copy\"\n" +
		"3. Paste into a text file\n" +
		"4. Save with filename: " + filename
}

func safariDesktopMessage(filename string) string {
	return savePrefix +
		"1. Press Cmd+S (Mac) or Ctrl+S (PC)\n" +
		"2. Save as filename: " + filename
}

func desktopPopupMessage(filename string) string {
	return savePrefix +
		"1. Press Ctrl+S (or Cmd+S on Mac)\n" +
		"2. Save as filename: " + filename
}

func mobileClipboardMessage(filename string) string {
	return savePrefix +
		"1. Data has been copied to clipboard\n" +
		"2. Open Notes or Files app\n" +
		"3. Create new text file\n" +
		"4. Paste and save as: " + filename
}

func safariPopupBlockedMessage(filename string) string {
	return "Popup blocked. Your FIQuest data has been copied to clipboard.\n" +
		"Please paste into a text file and save as: " + filename
}

func popupBlockedMessage(filename string) string {
	return "Popup blocked. Data copied to clipboard.\n" +
		"Please paste into a text file and save as: " + filename
}

func shareFailedMessage(filename string) string {
	return "Unable to share file. Data copied to clipboard.\n" +
		"Please paste into a text file and save as: " + filename
}

func downloadFailedMessage(filename string) string {
	return "Unable to download file. Data has been copied to clipboard.\n" +
		"Please paste into a text file and save as: " + filename
}
