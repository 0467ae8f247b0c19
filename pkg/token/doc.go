// Package token はベアラートークン（HS256署名のJWT）の発行と検証を提供する。
//
// 署名鍵はプロセス起動時に一度だけ読み込まれる不変値で、発行側と検証側の
// 双方にコンストラクタ経由で注入する。トークンはどこにも保存されず、
// 署名が現在の鍵で検証でき、かつ現在時刻が有効期限より前である場合に限り有効となる。
package token
