package main

import "ai_blog_post_writer/cmd"

func main() {
	cmd.Execute()
}
