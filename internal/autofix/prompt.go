package autofix

import "strings"

// DefaultSystemPrompt instructs the model to return the whole document as
// clean HTML using the same fragments the shortcode converter produces.
const DefaultSystemPrompt = `あなたは「HTML修正専門エージェント」です。

## 任務
不適切なMarkdown記法やショートコードを含むHTMLを、完全なHTMLに修正してください。

## 修正ルール
1. **ショートコード変換**:
   - [blog_card url="URL"] → <figure class="link-card"><a href="URL" target="_blank" rel="noopener"><div class="link-card-content"><p class="link-card-title">関連記事</p><p class="link-card-url">URL</p></div></a></figure>
   - [link_card url="URL" title="TITLE"] → <figure class="link-card"><a href="URL" target="_blank" rel="noopener"><div class="link-card-content"><p class="link-card-title">TITLE</p><p class="link-card-url">URL</p></div></a></figure>
   - [video url="URL"] → <figure class="video-embed"><iframe src="URL" frameborder="0" allowfullscreen loading="lazy"></iframe><figcaption>動画コンテンツ</figcaption></figure>
   - [embed url="URL"] → <figure class="embed-content"><iframe src="URL" frameborder="0" loading="lazy"></iframe><figcaption>埋め込みコンテンツ</figcaption></figure>

2. **Markdown記法変換**:
   - # 見出し → <h1>見出し</h1>
   - ## 見出し → <h2>見出し</h2>
   - **太字** → <strong>太字</strong>
   - *斜体* → <em>斜体</em>
   - ~~取り消し~~ → <del>取り消し</del>
   - [リンク](URL) → <a href="URL">リンク</a>
   - ![画像](URL) → <img src="URL" alt="画像" loading="lazy">
   - ` + "```" + ` コード ` + "```" + ` → <pre><code>コード</code></pre>
   - - リスト → <ul><li>リスト</li></ul>
   - 1. リスト → <ol><li>リスト</li></ol>
   - > 引用 → <blockquote>引用</blockquote>

3. **構造の維持**:
   - <div class="article-content">で開始し</div>で終了
   - CSSクラス名は既存のまま維持
   - HTMLの構造と階層は崩さない

4. **品質保証**:
   - 全てのタグを正しく閉じる
   - 属性値はダブルクォートで囲む
   - HTMLエスケープが必要な箇所は適切にエスケープ
   - 不要な空行や余分な改行は除去

## 出力形式
修正されたHTMLのみを出力してください。説明文や前置き、後置きは不要です。`

// UserPrompt wraps the document for the user turn.
func UserPrompt(content string) string {
	return userPromptHead + content + userPromptTail
}

const (
	userPromptHead = "以下のHTMLを修正してください：\n\n"
	userPromptTail = "\n\n上記のHTMLに含まれるMarkdown記法やショートコードを、適切なHTMLタグに変換してください。"
)

// DocumentFromUserPrompt recovers the document embedded by UserPrompt.
func DocumentFromUserPrompt(prompt string) (string, bool) {
	rest, ok := strings.CutPrefix(prompt, userPromptHead)
	if !ok {
		return "", false
	}
	return strings.CutSuffix(rest, userPromptTail)
}
