package notifier

// SetupInstructions walks a user through creating a Telegram bot and finding a chat id
const SetupInstructions = `
📱 TELEGRAM BOT SETUP INSTRUCTIONS:

1. Create a new bot:
   • Open Telegram and message @BotFather
   • Send /newbot command
   • Choose a name for your bot (e.g., "My Email Agent")
   • Choose a username (must end with 'bot', e.g., "my_email_agent_bot")
   • Copy the bot token (format: 123456789:ABC-DEF...)

2. Get your chat ID:
   Method A - Message your bot first:
   • Find your bot in Telegram and send it any message
   • Visit: https://api.telegram.org/bot<YOUR_BOT_TOKEN>/getUpdates
   • Look for "chat":{"id": YOUR_CHAT_ID} in the response

   Method B - Use @userinfobot:
   • Message @userinfobot in Telegram
   • It will reply with your user ID (this is your chat_id)

3. For group chats:
   • Add your bot to the group
   • Send a message in the group
   • Use method A above to get the group chat ID (will be negative)

4. Test your setup:
   • Use the test endpoint to verify your bot token and chat ID work

⚠️ IMPORTANT:
• Keep your bot token secret
• The bot can only send messages to users who have messaged it first
• For groups, the bot must be added as a member
`
