package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Messages holds the user-facing message templates. Placeholders use
// printf verbs; the comment on each field lists the interpolated values.
type Messages struct {
	StartMsg string `yaml:"start_msg"`
	HelpMsg  string `yaml:"help_msg"` // general limit, privileged limit

	ListTitle string `yaml:"list_title"`
	ListEmpty string `yaml:"list_empty"`
	NoAccess  string `yaml:"no_access"`

	DelAllSuccess  string `yaml:"delall_success"` // deleted count
	DelAllAlready  string `yaml:"delall_already"`
	DelObjSuccess  string `yaml:"del_obj_success"`
	DelObjNotFound string `yaml:"del_obj_not_found"`
	DelCmdError    string `yaml:"del_cmd_error"`

	FileCheckTempMsg  string `yaml:"file_check_tempmsg"`
	FileNotSupport    string `yaml:"file_not_support"`
	FileUploadAlready string `yaml:"file_upload_already"` // size, url, expire date, expire time
	FileUploadTempMsg string `yaml:"file_upload_tempmsg"`
	FileUploadSuccess string `yaml:"file_upload_success"` // size, url, expire date, expire time
	FileUploadError   string `yaml:"file_upload_error"`
	FileDownloadError string `yaml:"file_download_error"`
	FileSizeError     string `yaml:"file_size_error"` // tier limit

	FileDownloadTempMsg string `yaml:"file_download_tempmsg"` // progress info, progress bar
	ProgressFullBar     string `yaml:"progress_full_bar"`
	ProgressEmptyBar    string `yaml:"progress_empty_bar"`

	NotFileError string `yaml:"not_file_error"`
}

// DefaultMessages returns the built-in English templates.
func DefaultMessages() Messages {
	return Messages{
		StartMsg: "Hi! Send me a file and I'll reply with a shareable download link.",
		HelpMsg: "Send any file and you'll get a download link back.\n" +
			"Size limit: %s (regular users) / %s (VIP users).",

		ListTitle: "Stored files:",
		ListEmpty: "There are no stored files.",
		NoAccess:  "You don't have access to this command.",

		DelAllSuccess:  "Done! %d file(s) deleted.",
		DelAllAlready:  "The storage is already empty.",
		DelObjSuccess:  "Object(s) deleted.",
		DelObjNotFound: "No object found with that name.",
		DelCmdError:    "Usage: /delete <object name>",

		FileCheckTempMsg:  "Checking your file...",
		FileNotSupport:    "This type of media is not supported.",
		FileUploadAlready: "This file was already uploaded! (%s)\n\n%s\n\nThe link expires on %s at %s.",
		FileUploadTempMsg: "Uploading your file to storage...",
		FileUploadSuccess: "Here is your download link! (%s)\n\n%s\n\nThe link expires on %s at %s.",
		FileUploadError:   "Sorry, something went wrong while uploading your file.",
		FileDownloadError: "Sorry, something went wrong while receiving your file.",
		FileSizeError:     "Your file is too big! The limit is %s.",

		FileDownloadTempMsg: "Receiving your file...\n%s\n%s",
		ProgressFullBar:     "█",
		ProgressEmptyBar:    "░",

		NotFileError: "That doesn't look like a file. Send me a file to get a link.",
	}
}

// LoadMessages loads message templates from a YAML file, falling back to
// the defaults for any key the file omits. An empty path returns the
// defaults unchanged.
func LoadMessages(path string) (Messages, error) {
	msgs := DefaultMessages()
	if path == "" {
		return msgs, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return msgs, fmt.Errorf("read messages file: %w", err)
	}
	if err := yaml.Unmarshal(data, &msgs); err != nil {
		return msgs, fmt.Errorf("parse messages file: %w", err)
	}
	return msgs, nil
}
