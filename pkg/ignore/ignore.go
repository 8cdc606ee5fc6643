package ignore

import (
	"os"
	"path/filepath"

	gitignore "github.com/sabhiram/go-gitignore"
)

// FileName 是用户自定义忽略规则所在的文件
const FileName = ".kvfsignore"

// Matcher 判断导入本地目录时哪些路径应该跳过
type Matcher struct {
	ignorer *gitignore.GitIgnore
}

// NewMatcher 初始化忽略匹配器
// rootPath: 被导入的本地目录，.kvfsignore 在它的根部查找
func NewMatcher(rootPath string) (*Matcher, error) {
	// 1. 默认规则强制生效
	defaultRules := []string{
		// 本地元数据目录 (disk / leveldb / sqlite 后端都放在这里)
		// 导入它会把正在写的数据再写一遍
		".kvfs",
		".git",

		// 可能含有 S3 / Redis 凭证
		"config.yaml",
		".env",

		".DS_Store",
		"Thumbs.db",
	}

	var (
		ignorer *gitignore.GitIgnore
		err     error
	)

	// 2. 合并用户的 .kvfsignore
	ignoreFilePath := filepath.Join(rootPath, FileName)
	if _, errStat := os.Stat(ignoreFilePath); errStat == nil {
		ignorer, err = gitignore.CompileIgnoreFileAndLines(ignoreFilePath, defaultRules...)
	} else {
		ignorer = gitignore.CompileIgnoreLines(defaultRules...)
	}
	if err != nil {
		return nil, err
	}

	return &Matcher{ignorer: ignorer}, nil
}

// Matches 检查给定的路径是否应该忽略
// path 是相对于导入根目录的 slash 路径 (例如 "data/model.bin")
func (m *Matcher) Matches(path string) bool {
	if m == nil || m.ignorer == nil {
		return false
	}
	return m.ignorer.MatchesPath(path)
}
